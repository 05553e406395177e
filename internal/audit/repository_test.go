package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/blockenergy-core/internal/infrastructure/database"
	"github.com/nerrad567/blockenergy-core/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	require.NoError(t, db.Migrate(context.Background(), migrations.FS))
	return NewSQLiteRepository(db.DB)
}

func TestCreate_FillsIDAndTime(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := &Entry{Action: ActionSave, World: "overworld", Subject: "alex", Source: "api",
		Details: map[string]any{"written": 3}}
	require.NoError(t, repo.Create(ctx, e))
	assert.Regexp(t, `^aud-[0-9a-f]{8}$`, e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	got := res.Entries[0]
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "alex", got.Subject)
	assert.Equal(t, "api", got.Source)
	assert.InDelta(t, 3, got.Details["written"], 0)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
}

func TestCreate_EmptySubjectIsNull(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Entry{Action: ActionExport, World: "nether", Source: "api"}))

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Empty(t, res.Entries[0].Subject)
	assert.Nil(t, res.Entries[0].Details)

	res, err = repo.List(ctx, Filter{Subject: "alex"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestList_FiltersAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Action: ActionSave, World: "overworld", Subject: "alex", CreatedAt: base},
		{Action: ActionExport, World: "overworld", Subject: "alex", CreatedAt: base.Add(time.Second)},
		{Action: ActionSave, World: "nether", Subject: "sam", CreatedAt: base.Add(2 * time.Second)},
		{Action: ActionSave, World: "overworld", Subject: "sam", CreatedAt: base.Add(1500 * time.Millisecond)},
	}
	for i := range seed {
		seed[i].Source = "api"
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 4, res.Total)
	assert.Equal(t, []string{seed[2].ID, seed[3].ID, seed[1].ID, seed[0].ID}, ids(res.Entries), "newest first")

	res, err = repo.List(ctx, Filter{World: "overworld", Action: ActionSave})
	require.NoError(t, err)
	assert.Equal(t, []string{seed[3].ID, seed[0].ID}, ids(res.Entries))

	res, err = repo.List(ctx, Filter{Subject: "alex", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{seed[0].ID}, ids(res.Entries))
}

func TestList_ClampsPaging(t *testing.T) {
	repo := newTestRepo(t)

	res, err := repo.List(context.Background(), Filter{Limit: 10_000, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, res.Limit)
	assert.Equal(t, 0, res.Offset)
	assert.NotNil(t, res.Entries)

	res, err = repo.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, defaultLimit, res.Limit)
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
