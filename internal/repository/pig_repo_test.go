package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPig(t *testing.T, repo *PigRepository, name string, created time.Time) domain.Pig {
	t.Helper()
	pig := domain.Pig{
		ID:      uuid.New(),
		Name:    name,
		Created: created,
		Creator: uuid.New(),
	}
	require.NoError(t, repo.Create(context.Background(), &pig))
	return pig
}

func TestPigCreateAndGet(t *testing.T) {
	repo := NewPigRepository(testDB(t))
	ctx := context.Background()

	pig := seedPig(t, repo, "Wilbur", time.Now().UTC())

	got, err := repo.GetByID(ctx, pig.ID)
	require.NoError(t, err)
	assert.Equal(t, pig.Name, got.Name)
	assert.Equal(t, pig.Creator, got.Creator)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPigGetByIDs(t *testing.T) {
	repo := NewPigRepository(testDB(t))
	ctx := context.Background()

	a := seedPig(t, repo, "Wilbur", time.Now().UTC())
	seedPig(t, repo, "Hamlet", time.Now().UTC())

	got, err := repo.GetByIDs(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Wilbur", got[0].Name)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchByName(t *testing.T) {
	repo := NewPigRepository(testDB(t))
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	seedPig(t, repo, "Wilbur", base)
	seedPig(t, repo, "Wilbur the Second", base.Add(time.Minute))
	seedPig(t, repo, "Hamlet", base.Add(2*time.Minute))
	seedPig(t, repo, "Old Major", base.Add(3*time.Minute))

	t.Run("case-insensitive substring", func(t *testing.T) {
		got, err := repo.SearchByName(ctx, "wilbur", 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Wilbur", got[0].Name, "creation order")
		assert.Equal(t, "Wilbur the Second", got[1].Name)
	})

	t.Run("all tokens must appear", func(t *testing.T) {
		got, err := repo.SearchByName(ctx, "second wilbur", 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Wilbur the Second", got[0].Name)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := repo.SearchByName(ctx, "Napoleon", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("limit respected", func(t *testing.T) {
		got, err := repo.SearchByName(ctx, "wilbur", 1, 0)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
