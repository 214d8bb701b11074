package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Pig{}, &domain.BulkImport{}))
	return db
}

func seedImport(t *testing.T, repo *BulkImportRepository, creator uuid.UUID, started time.Time, pending ...string) *domain.BulkImport {
	t.Helper()
	imp := &domain.BulkImport{
		ID:       uuid.New(),
		Name:     "batch",
		Creator:  creator,
		Started:  started,
		Pending:  pending,
		Accepted: domain.UUIDList{},
		Rejected: domain.StringList{},
	}
	require.NoError(t, repo.Create(context.Background(), imp))
	return imp
}

func TestBulkImportRoundtrip(t *testing.T) {
	repo := NewBulkImportRepository(testDB(t))
	ctx := context.Background()

	accepted := uuid.New()
	imp := &domain.BulkImport{
		ID:       uuid.New(),
		Name:     "spring batch",
		Creator:  uuid.New(),
		Started:  time.Now().UTC().Truncate(time.Second),
		Pending:  domain.StringList{"Wilbur"},
		Accepted: domain.UUIDList{accepted},
		Rejected: domain.StringList{"Hamlet"},
	}
	require.NoError(t, repo.Create(ctx, imp))

	got, err := repo.GetByID(ctx, imp.ID)
	require.NoError(t, err)

	assert.Equal(t, imp.Name, got.Name)
	assert.Equal(t, imp.Creator, got.Creator)
	assert.Equal(t, domain.StringList{"Wilbur"}, got.Pending)
	assert.Equal(t, domain.UUIDList{accepted}, got.Accepted)
	assert.Equal(t, domain.StringList{"Hamlet"}, got.Rejected)
	assert.Nil(t, got.Finished)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewBulkImportRepository(testDB(t))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePersistsBucketChanges(t *testing.T) {
	repo := NewBulkImportRepository(testDB(t))
	ctx := context.Background()
	imp := seedImport(t, repo, uuid.New(), time.Now().UTC(), "Wilbur")

	loaded, err := repo.GetByID(ctx, imp.ID)
	require.NoError(t, err)

	loaded.Pending = domain.StringList{}
	loaded.Rejected = append(loaded.Rejected, "Wilbur")
	now := time.Now().UTC()
	loaded.Finished = &now
	require.NoError(t, repo.Update(ctx, loaded))

	got, err := repo.GetByID(ctx, imp.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Pending)
	assert.Equal(t, domain.StringList{"Wilbur"}, got.Rejected)
	assert.NotNil(t, got.Finished)
}

// Two writers load the same revision; the slower one must get a conflict
// instead of silently overwriting the winner.
func TestUpdateDetectsLostRace(t *testing.T) {
	repo := NewBulkImportRepository(testDB(t))
	ctx := context.Background()
	imp := seedImport(t, repo, uuid.New(), time.Now().UTC(), "Wilbur", "Hamlet")

	first, err := repo.GetByID(ctx, imp.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, imp.ID)
	require.NoError(t, err)

	first.Pending = domain.StringList{"Hamlet"}
	require.NoError(t, repo.Update(ctx, first))

	second.Pending = domain.StringList{"Wilbur"}
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// the loser's view keeps its loaded revision so it can reload and retry
	reloaded, err := repo.GetByID(ctx, imp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{"Hamlet"}, reloaded.Pending)

	reloaded.Pending = domain.StringList{}
	assert.NoError(t, repo.Update(ctx, reloaded))
}

func TestFetchFiltersAndOrders(t *testing.T) {
	repo := NewBulkImportRepository(testDB(t))
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	older := seedImport(t, repo, alice, base)
	newer := seedImport(t, repo, alice, base.Add(time.Minute))
	other := seedImport(t, repo, bob, base.Add(2*time.Minute))

	t.Run("creator filter", func(t *testing.T) {
		got, err := repo.Fetch(ctx, domain.BulkFilter{Creators: []uuid.UUID{alice}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, older.ID, got[0].ID, "oldest first")
		assert.Equal(t, newer.ID, got[1].ID)
	})

	t.Run("id filter", func(t *testing.T) {
		got, err := repo.Fetch(ctx, domain.BulkFilter{IDs: []uuid.UUID{other.ID}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, other.ID, got[0].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := repo.Fetch(ctx, domain.BulkFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, newer.ID, got[0].ID)
	})

	t.Run("no filter returns all", func(t *testing.T) {
		got, err := repo.Fetch(ctx, domain.BulkFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}
