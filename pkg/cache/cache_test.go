package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followgraph/pkg/logger"
	"followgraph/pkg/models"
)

const hourMs = int64(60 * 60 * 1000)

var (
	alice = models.Profile{ID: "1", Handle: "alice"}
	bob   = models.Profile{ID: "2", Handle: "bob"}
	carol = models.Profile{ID: "3", Handle: "carol"}
)

func TestNeedsRefresh(t *testing.T) {
	const T = int64(1_700_000_000_000)
	window := 24 * hourMs

	registry := Registry{}
	assert.True(t, registry.NeedsRefresh("1", T, window), "no record")

	registry.Record("1", "alice", T)
	assert.False(t, registry.NeedsRefresh("1", T, window))
	assert.False(t, registry.NeedsRefresh("1", T+window-1, window))
	assert.True(t, registry.NeedsRefresh("1", T+window, window))
	assert.True(t, registry.NeedsRefresh("1", T+window+1, window))

	assert.True(t, registry.NeedsRefresh("1", T, 0), "zero window always refreshes")
	assert.True(t, registry.NeedsRefresh("2", T, window))
}

func TestRegistryIDsSorted(t *testing.T) {
	registry := Registry{}
	registry.Record("30", "c", 1)
	registry.Record("10", "a", 1)
	registry.Record("20", "b", 1)
	assert.Equal(t, []string{"10", "20", "30"}, registry.IDs())
}

func TestFileStoreRegistryRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	empty, err := store.LoadRegistry()
	require.NoError(t, err)
	assert.Empty(t, empty)

	registry := Registry{}
	registry.Record("1", "alice", 1_700_000_000_000)
	registry.Record("12345678901234567890", "bignum", 1_700_000_000_001)
	require.NoError(t, store.SaveRegistry(registry))

	loaded, err := store.LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, registry, loaded)

	raw, err := os.ReadFile(filepath.Join(store.Dir(), RegistryFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"12345678901234567890": {`)
	assert.Contains(t, string(raw), `"lastFetchedAtEpochMs": 1700000000001`)
}

func TestFileStoreEdges(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadEdges("1", models.DirectionFollowers)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.SaveEdges("1", models.DirectionFollowers, []models.Profile{bob, carol}))
	require.NoError(t, store.SaveEdges("1", models.DirectionFollowing, nil))

	followers, err := store.LoadEdges("1", models.DirectionFollowers)
	require.NoError(t, err)
	assert.Equal(t, []models.Profile{bob, carol}, followers)

	following, err := store.LoadEdges("1", models.DirectionFollowing)
	require.NoError(t, err)
	assert.Empty(t, following)
	assert.NotNil(t, following, "empty list is a hit, not a miss")

	assert.FileExists(t, filepath.Join(store.Dir(), "1.followers.json"))
	assert.FileExists(t, filepath.Join(store.Dir(), "1.following.json"))
}

func TestFileStoreMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.followers.json"), []byte("{oops"), 0644))
	_, err = store.LoadEdges("1", models.DirectionFollowers)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.following.json"), []byte("null"), 0644))
	_, err = store.LoadEdges("1", models.DirectionFollowing)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, os.WriteFile(filepath.Join(dir, RegistryFile), []byte("not json"), 0644))
	_, err = store.LoadRegistry()
	assert.ErrorIs(t, err, ErrMiss)
}

func TestOpenWithMalformedRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, RegistryFile), []byte("[1,2"), 0644))
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	log := logger.NewTestLogger()
	c, err := Open(store, log)
	require.NoError(t, err)
	assert.Empty(t, c.Registry())
	assert.True(t, c.NeedsRefresh("1", 0, hourMs))
	assert.NotEmpty(t, log.GetMessagesByLevel("WARN"))
}

func TestRecordRefreshAndLoad(t *testing.T) {
	store := NewMemoryStore()
	c, err := Open(store, logger.NewNopLogger())
	require.NoError(t, err)

	const now = int64(1_000_000)
	require.True(t, c.NeedsRefresh(alice.ID, now, hourMs))

	err = c.RecordRefresh(context.Background(), alice, []models.Profile{carol}, []models.Profile{bob}, now)
	require.NoError(t, err)

	assert.False(t, c.NeedsRefresh(alice.ID, now+hourMs-1, hourMs))
	assert.True(t, c.NeedsRefresh(alice.ID, now+hourMs, hourMs))

	followers, following, ok, err := c.LoadEdges(alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []models.Profile{carol}, followers)
	assert.Equal(t, []models.Profile{bob}, following)

	persisted, err := store.LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, models.TargetRecord{Handle: "alice", LastFetchedAtEpochMs: now}, persisted[alice.ID])
}

func TestRecordRefreshUpdatesHandle(t *testing.T) {
	store := NewMemoryStore()
	c, err := Open(store, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, c.RecordRefresh(context.Background(), alice, nil, nil, 1))
	renamed := models.Profile{ID: alice.ID, Handle: "alice_v2"}
	require.NoError(t, c.RecordRefresh(context.Background(), renamed, nil, nil, 2))

	record := c.Registry()[alice.ID]
	assert.Equal(t, "alice_v2", record.Handle)
	assert.Equal(t, int64(2), record.LastFetchedAtEpochMs)
	assert.Len(t, c.Registry(), 1)
}

func TestLoadEdgesMissingBlobIsMiss(t *testing.T) {
	store := NewMemoryStore()
	c, err := Open(store, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, c.RecordRefresh(context.Background(), alice, []models.Profile{bob}, nil, 1))

	store.Drop(alice.ID, models.DirectionFollowing)

	followers, following, ok, err := c.LoadEdges(alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, followers)
	assert.Nil(t, following)
}

func TestCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	c, err := Open(store, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, c.RecordRefresh(context.Background(), carol, []models.Profile{alice}, nil, 42))

	reopenedStore, err := NewFileStore(dir)
	require.NoError(t, err)
	reopened, err := Open(reopenedStore, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, c.Registry(), reopened.Registry())
	followers, following, ok, err := reopened.LoadEdges(carol.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []models.Profile{alice}, followers)
	assert.Empty(t, following)
}

func TestRecordRefreshCancelled(t *testing.T) {
	c, err := Open(NewMemoryStore(), logger.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.RecordRefresh(ctx, alice, nil, nil, 1), context.Canceled)
	assert.Empty(t, c.Registry())
}
