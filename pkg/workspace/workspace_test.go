package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		name           string
		chatID         int64
		collectionName string
		expected       string
	}{
		{name: "plain", chatID: 42, collectionName: "ValidPack", expected: "42_ValidPack"},
		{name: "negative chat id", chatID: -1001, collectionName: "Cats", expected: "-1001_Cats"},
		{name: "separator replaced", chatID: 7, collectionName: "../etc/passwd", expected: "7__etc_passwd"},
		{name: "dots only", chatID: 7, collectionName: "..", expected: "7_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.chatID, tt.collectionName))
		})
	}
}

func TestName_DistinctPairsNeverCollide(t *testing.T) {
	seen := make(map[string]string)

	for _, chatID := range []int64{1, 2, 12, 123, -100} {
		for _, set := range []string{"A", "B", "3_A", "23_A", "_A"} {
			pair := fmt.Sprintf("%d/%s", chatID, set)
			name := Name(chatID, set)

			other, dup := seen[name]
			require.False(t, dup, "%s and %s share workspace name %s", pair, other, name)
			seen[name] = pair
		}
	}
}

func TestAcquire_DistinctPairsUseDistinctPaths(t *testing.T) {
	root := t.TempDir()

	first, err := Acquire(AcquireParams{Root: root, ChatID: 1, CollectionName: "23_A"})
	require.NoError(t, err)
	defer first.Release()

	second, err := Acquire(AcquireParams{Root: root, ChatID: 12, CollectionName: "3_A"})
	require.NoError(t, err)
	defer second.Release()

	assert.NotEqual(t, first.Dir(), second.Dir())
	assert.NotEqual(t, first.ArchivePath(), second.ArchivePath())
}

func TestAcquire_Layout(t *testing.T) {
	root := t.TempDir()

	ws, err := Acquire(AcquireParams{Root: root, RequestID: "req", ChatID: 42, CollectionName: "ValidPack"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "req", "42_ValidPack"), ws.Dir())
	assert.Equal(t, filepath.Join(root, "req", "42_ValidPack", "stickers"), ws.ItemsDir())
	assert.Equal(t, filepath.Join(root, "req", "42_ValidPack.zip"), ws.ArchivePath())
	assert.Equal(t, "42_ValidPack.zip", ws.ArchiveName())
	assert.DirExists(t, ws.ItemsDir())

	require.NoError(t, ws.Release())
	assert.NoDirExists(t, filepath.Join(root, "req"))
}

func TestAcquire_RequestIDCollision(t *testing.T) {
	root := t.TempDir()

	ws, err := Acquire(AcquireParams{Root: root, RequestID: "same", ChatID: 1, CollectionName: "Pack"})
	require.NoError(t, err)
	defer ws.Release()

	_, err = Acquire(AcquireParams{Root: root, RequestID: "same", ChatID: 1, CollectionName: "Pack"})
	require.Error(t, err)
	assert.DirExists(t, ws.ItemsDir())
}

func TestAcquire_ConcurrentSamePair(t *testing.T) {
	root := t.TempDir()
	const requests = 16

	var wg sync.WaitGroup
	dirs := make([]string, requests)
	errs := make([]error, requests)

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws, err := Acquire(AcquireParams{Root: root, ChatID: 99, CollectionName: "Shared"})
			if err != nil {
				errs[i] = err
				return
			}
			dirs[i] = ws.Dir()
			errs[i] = ws.Release()
		}(i)
	}
	wg.Wait()

	unique := make(map[string]struct{})
	for i := 0; i < requests; i++ {
		require.NoError(t, errs[i])
		unique[dirs[i]] = struct{}{}
	}
	assert.Len(t, unique, requests)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRelease_RemovesPartialContentsAndArchive(t *testing.T) {
	root := t.TempDir()

	ws, err := Acquire(AcquireParams{Root: root, ChatID: 5, CollectionName: "Pack"})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(ws.ItemsDir(), "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws.ItemsDir(), "nested", "a.webp"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(ws.ArchivePath(), []byte("zip"), 0o644))

	require.NoError(t, ws.Release())

	assert.NoDirExists(t, ws.Dir())
	assert.NoFileExists(t, ws.ArchivePath())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRelease_Idempotent(t *testing.T) {
	ws, err := Acquire(AcquireParams{Root: t.TempDir(), ChatID: 5, CollectionName: "Pack"})
	require.NoError(t, err)

	require.NoError(t, ws.Release())
	require.NoError(t, ws.Release())
}

func TestPurgeStale(t *testing.T) {
	root := t.TempDir()

	stale := filepath.Join(root, xid.New().String())
	require.NoError(t, os.MkdirAll(filepath.Join(stale, "1_Pack", "stickers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "1_Pack.zip"), []byte("zip"), 0o644))

	unrelated := filepath.Join(root, "keep-me")
	require.NoError(t, os.Mkdir(unrelated, 0o755))

	removed, err := PurgeStale(root)
	require.NoError(t, err)
	assert.Equal(t, []string{stale}, removed)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, unrelated)
}

func TestPurgeStale_MissingRoot(t *testing.T) {
	removed, err := PurgeStale(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, removed)
}
