package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pump runs the session's update loop until the condition holds.
func pump(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.ProcessUpdates(context.Background())
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for session state")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSessionAuthenticates(t *testing.T) {
	identity := Identity{ID: uuid.New(), Name: "editor", Roles: []domain.Role{domain.RoleBulkEditor}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth", r.URL.Path)
		writeJSON(w, http.StatusOK, identity)
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL, "tok"))
	s.CheckAuth(context.Background())

	pump(t, s, s.Authenticated)
	require.NotNil(t, s.Identity())
	assert.Equal(t, "editor", s.Identity().Name)
	assert.True(t, s.Identity().HasRole(domain.RoleBulkEditor))
}

// A 401 kills the session and silently drops errors queued before it; they
// are all symptoms of the same dead session.
func TestSessionInvalidatesOn401(t *testing.T) {
	var mode atomic.Int32 // 0 auth ok, 1 fetch 500, 2 fetch 401

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/auth":
			writeJSON(w, http.StatusOK, Identity{ID: uuid.New(), Name: "editor"})
		case mode.Load() == 1:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		}
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL, "tok"))
	s.CheckAuth(context.Background())
	pump(t, s, s.Authenticated)

	mode.Store(1)
	s.Refresh(context.Background())
	pump(t, s, func() bool { return len(s.Errors()) == 1 })

	mode.Store(2)
	s.Refresh(context.Background())
	pump(t, s, func() bool { return !s.Authenticated() })

	assert.Empty(t, s.Errors(), "queued errors must not survive session death")
	assert.Nil(t, s.Identity())
}

func TestSessionDismissError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL, "tok"))
	s.Refresh(context.Background())
	pump(t, s, func() bool { return len(s.Errors()) == 1 })

	s.DismissError(0)
	assert.Empty(t, s.Errors())

	s.DismissError(5) // out of range is a no-op
}

func TestSelectIsGatedWhileDirty(t *testing.T) {
	s := NewSession(New("http://localhost:0", "tok"))
	ctx := context.Background()

	first := &domain.BulkImport{ID: uuid.New(), Name: "first"}
	second := &domain.BulkImport{ID: uuid.New(), Name: "second"}

	assert.True(t, s.Select(ctx, first), "clean session selects immediately")
	assert.Equal(t, first.ID, s.SelectedID())

	s.MarkDirty()
	assert.False(t, s.Select(ctx, second), "dirty session must defer the action")
	assert.True(t, s.HasPending())
	assert.Equal(t, first.ID, s.SelectedID(), "selection unchanged until confirmed")

	// keep editing: the parked action is dropped, the edits stay
	s.CancelPending()
	assert.False(t, s.HasPending())
	assert.True(t, s.Dirty())
	assert.Equal(t, first.ID, s.SelectedID())

	// this time discard the edits and go through with it
	assert.False(t, s.Select(ctx, second))
	s.ConfirmPending(ctx)
	assert.Equal(t, second.ID, s.SelectedID())
	assert.False(t, s.Dirty())
}

func TestStartImportSelectsResult(t *testing.T) {
	imp := domain.BulkImport{ID: uuid.New(), Name: "Wilbur", Pending: domain.StringList{"Wilbur"}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/bulk/create":
			writeJSON(w, http.StatusCreated, imp)
		case "/api/bulk/fetch":
			writeJSON(w, http.StatusOK, []domain.BulkImport{imp})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL, "tok"))
	require.True(t, s.StartImport(context.Background(), []string{"Wilbur"}))

	pump(t, s, func() bool { return s.SelectedID() == imp.ID })
	assert.False(t, s.Dirty())

	pump(t, s, func() bool {
		imports, ready := s.Imports()
		return ready && len(imports) == 1
	})
}

// A confirmed patch is folded into the cached selection with the same apply
// code the server ran, so the cache matches the stored row immediately.
func TestConfirmedPatchMergesIntoSelection(t *testing.T) {
	imp := &domain.BulkImport{ID: uuid.New(), Name: "Wilbur", Pending: domain.StringList{"Wilbur"}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/bulk/patch":
			w.WriteHeader(http.StatusOK)
		case "/api/bulk/fetch":
			writeJSON(w, http.StatusOK, []domain.BulkImport{})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL, "tok"))
	ctx := context.Background()
	require.True(t, s.Select(ctx, imp))
	s.MarkDirty()

	accepted := uuid.New()
	s.SubmitPatch(ctx, &domain.BulkPatch{
		ID:       imp.ID,
		Pending:  []domain.Action[string]{{Op: domain.OpRemove, Value: "Wilbur"}},
		Accepted: []domain.Action[uuid.UUID]{{Op: domain.OpAdd, Value: accepted}},
	})

	pump(t, s, func() bool { return !s.Dirty() })

	selected := s.Selected()
	require.NotNil(t, selected)
	assert.Empty(t, selected.Pending)
	assert.Equal(t, domain.UUIDList{accepted}, selected.Accepted)
	assert.True(t, selected.IsFinished(), "drained pending bucket finishes the cached copy too")
}

func TestSubmitPatchIgnoresEmptyPatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request should be sent for an empty patch, got %s", r.URL.Path)
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL, "tok"))
	s.SubmitPatch(context.Background(), nil)
	s.SubmitPatch(context.Background(), &domain.BulkPatch{ID: uuid.New()})

	time.Sleep(20 * time.Millisecond)
	s.ProcessUpdates(context.Background())
	assert.Empty(t, s.Errors())
}
