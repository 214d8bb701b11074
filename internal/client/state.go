package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
)

// pendingAction is a deferred interaction that was blocked on the dirty
// confirmation: either starting a new import or changing the selection.
type pendingAction struct {
	names     []string
	selection *domain.BulkImport
	active    bool
}

// Session holds the client-side view of the import workflow: the cached
// import list, the current selection, unsaved-change tracking, and the
// single-flight slots for each endpoint. It is written for a poll loop:
// interactions submit requests, and ProcessUpdates folds finished results
// into the cached state each tick.
//
// Session is not safe for concurrent use; it belongs to the UI loop.
type Session struct {
	api *Client

	identity      *Identity
	authenticated bool

	imports     []domain.BulkImport
	haveImports bool
	selected    *domain.BulkImport

	dirty    bool
	deferred pendingAction

	errs []error

	authOp   *Operation[struct{}, *Identity]
	createOp *Operation[[]string, *domain.BulkImport]
	patchOp  *Operation[*domain.BulkPatch, *domain.BulkPatch]
	fetchOp  *Operation[domain.BulkFilter, []domain.BulkImport]
}

// NewSession creates a session over the given API client.
func NewSession(api *Client) *Session {
	s := &Session{api: api}
	s.authOp = NewOperation(func(ctx context.Context, _ struct{}) (*Identity, error) {
		return api.CheckAuth(ctx)
	})
	s.createOp = NewOperation(api.CreateImport)
	s.patchOp = NewOperation(api.PatchImport)
	s.fetchOp = NewOperation(api.FetchImports)
	return s
}

// CheckAuth probes the session in the background.
func (s *Session) CheckAuth(ctx context.Context) {
	s.authOp.Submit(ctx, struct{}{})
}

// Refresh re-queries the import list. The cached list is cleared so the
// caller can show a loading state until the result lands.
func (s *Session) Refresh(ctx context.Context) {
	s.imports = nil
	s.haveImports = false
	s.fetchOp.Submit(ctx, domain.BulkFilter{})
}

// ProcessUpdates folds any finished API calls into the session state.
// Call it once per tick before reading session fields.
func (s *Session) ProcessUpdates(ctx context.Context) {
	if identity, ok := received(s, s.authOp); ok {
		s.identity = identity
		s.authenticated = true
	}

	if imp, ok := received(s, s.createOp); ok {
		s.dirty = false
		s.selected = imp
		s.Refresh(ctx)
	}

	if patch, ok := received(s, s.patchOp); ok {
		s.dirty = false
		s.mergePatch(patch)
		s.Refresh(ctx)
	}

	if imports, ok := received(s, s.fetchOp); ok {
		s.imports = imports
		s.haveImports = true
	}
}

// mergePatch applies a confirmed patch to the cached selection. The same
// apply code runs on the server, so the cache lands in exactly the state
// the stored row is in without waiting for the refetch.
func (s *Session) mergePatch(patch *domain.BulkPatch) {
	if s.selected == nil || s.selected.ID != patch.ID {
		return
	}
	patch.ApplyTo(s.selected)
	s.selected.RecomputeFinished(time.Now().UTC())
}

// StartImport submits the raw names as a new import. When unsaved changes
// exist the action is deferred instead and false is returned; the caller
// confirms with ConfirmPending or drops it with CancelPending.
func (s *Session) StartImport(ctx context.Context, names []string) bool {
	return s.guardDirty(ctx, pendingAction{names: names, active: true})
}

// Select changes the selected import, nil meaning no selection. Dirty
// gating works as in StartImport.
func (s *Session) Select(ctx context.Context, imp *domain.BulkImport) bool {
	return s.guardDirty(ctx, pendingAction{selection: imp, active: true})
}

// guardDirty runs the action right away unless unsaved changes exist, in
// which case it is parked until the user confirms.
func (s *Session) guardDirty(ctx context.Context, action pendingAction) bool {
	s.deferred = action
	if s.dirty {
		return false
	}
	s.runDeferred(ctx)
	return true
}

// ConfirmPending discards unsaved changes and runs the parked action.
func (s *Session) ConfirmPending(ctx context.Context) {
	s.runDeferred(ctx)
}

// CancelPending drops the parked action and keeps the unsaved changes.
func (s *Session) CancelPending() {
	s.deferred = pendingAction{}
}

// HasPending reports whether an action is parked awaiting confirmation.
func (s *Session) HasPending() bool {
	return s.deferred.active
}

func (s *Session) runDeferred(ctx context.Context) {
	action := s.deferred
	s.deferred = pendingAction{}
	s.dirty = false

	if !action.active {
		return
	}
	if action.names != nil {
		s.createOp.Submit(ctx, action.names)
		return
	}
	s.selected = action.selection
}

// SubmitPatch sends the accumulated actions for the selected import.
func (s *Session) SubmitPatch(ctx context.Context, patch *domain.BulkPatch) {
	if patch == nil || patch.IsEmpty() {
		return
	}
	s.patchOp.Submit(ctx, patch)
}

// MarkDirty records that local edits exist which the server has not seen.
func (s *Session) MarkDirty() { s.dirty = true }

// Dirty reports whether unsaved local edits exist.
func (s *Session) Dirty() bool { return s.dirty }

// Authenticated reports whether the last auth probe succeeded and no call
// since came back 401.
func (s *Session) Authenticated() bool { return s.authenticated }

// Identity returns the operator identity, nil before the auth probe lands.
func (s *Session) Identity() *Identity { return s.identity }

// Imports returns the cached list and whether a fetch has completed since
// the last Refresh.
func (s *Session) Imports() ([]domain.BulkImport, bool) {
	return s.imports, s.haveImports
}

// Selected returns the currently selected import, nil for none.
func (s *Session) Selected() *domain.BulkImport { return s.selected }

// SelectedID returns the selected import's ID, uuid.Nil for none.
func (s *Session) SelectedID() uuid.UUID {
	if s.selected == nil {
		return uuid.Nil
	}
	return s.selected.ID
}

// Errors returns the dismissible error list, oldest first.
func (s *Session) Errors() []error { return s.errs }

// DismissError removes one entry from the error list.
func (s *Session) DismissError(i int) {
	if i < 0 || i >= len(s.errs) {
		return
	}
	s.errs = append(s.errs[:i], s.errs[i+1:]...)
}

// invalidate flips the session to unauthenticated. Queued errors are
// dropped; they are all symptoms of the dead session, and surfacing them
// next to the sign-in prompt would only be noise.
func (s *Session) invalidate() {
	s.authenticated = false
	s.identity = nil
	s.errs = nil
}

// received resolves one operation into the session: 401 invalidates the
// session, other errors go on the dismissible list, and a value is handed
// to the caller.
func received[I, O any](s *Session, op *Operation[I, O]) (O, bool) {
	var zero O
	res, done := op.Resolve()
	if !done {
		return zero, false
	}
	if res.Err != nil {
		if errors.Is(res.Err, ErrSessionInvalid) {
			s.invalidate()
		} else {
			s.errs = append(s.errs, res.Err)
		}
		return zero, false
	}
	return res.Value, true
}
