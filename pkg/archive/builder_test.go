package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/flowbaker/stickerzip/pkg/domain"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string][]byte, emptyDirs ...string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}

	for _, dir := range emptyDirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755))
	}
}

func readArchive(t *testing.T, path string) (map[string][]byte, []string) {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	files := make(map[string][]byte)
	var dirs []string

	for _, f := range reader.File {
		if strings.HasSuffix(f.Name, "/") {
			dirs = append(dirs, f.Name)
			continue
		}

		assert.Equal(t, zip.Deflate, f.Method, "entry %s", f.Name)

		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		files[f.Name] = content
	}

	sort.Strings(dirs)
	return files, dirs
}

func TestBuild_RoundTrip(t *testing.T) {
	source := filepath.Join(t.TempDir(), "42_ValidPack")
	files := map[string][]byte{
		"stickers/file_0.webp": []byte("first sticker"),
		"stickers/file_1.webp": bytes.Repeat([]byte("second"), 1024),
		"stickers/file_2.tgs":  {0x1f, 0x8b, 0x00, 0xff},
	}
	writeTree(t, source, files)

	dest := filepath.Join(t.TempDir(), "42_ValidPack.zip")
	size, err := Build(source, dest)
	require.NoError(t, err)

	stat, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, stat.Size(), size)

	gotFiles, gotDirs := readArchive(t, dest)
	assert.Equal(t, files, gotFiles)
	assert.Equal(t, []string{"stickers/"}, gotDirs)
}

func TestBuild_DirectoryEntries(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source,
		map[string][]byte{
			"stickers/a.webp":          []byte("a"),
			"stickers/animated/b.webm": []byte("b"),
		},
		"empty",
		"stickers/empty_nested",
	)

	dest := filepath.Join(t.TempDir(), "out.zip")
	_, err := Build(source, dest)
	require.NoError(t, err)

	gotFiles, gotDirs := readArchive(t, dest)
	assert.Len(t, gotFiles, 2)
	assert.Contains(t, gotFiles, "stickers/a.webp")
	assert.Contains(t, gotFiles, "stickers/animated/b.webm")
	assert.Equal(t, []string{
		"empty/",
		"stickers/",
		"stickers/animated/",
		"stickers/empty_nested/",
	}, gotDirs)
}

func TestBuild_EmptySource(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "empty.zip")

	_, err := Build(source, dest)
	require.NoError(t, err)

	gotFiles, gotDirs := readArchive(t, dest)
	assert.Empty(t, gotFiles)
	assert.Empty(t, gotDirs)
}

func TestBuild_CompressionLevels(t *testing.T) {
	source := t.TempDir()
	content := bytes.Repeat([]byte("sticker"), 4096)
	writeTree(t, source, map[string][]byte{"stickers/big.webp": content})

	for _, level := range []int{flate.BestSpeed, flate.BestCompression, flate.NoCompression} {
		dest := filepath.Join(t.TempDir(), "out.zip")
		_, err := NewBuilder(level).Build(source, dest)
		require.NoError(t, err)

		gotFiles, _ := readArchive(t, dest)
		assert.Equal(t, content, gotFiles["stickers/big.webp"])
	}
}

func TestBuild_MissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.zip")

	_, err := Build(filepath.Join(t.TempDir(), "missing"), dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIOFailure))
}

func TestBuild_UnwritableDestination(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string][]byte{"stickers/a.webp": []byte("a")})

	_, err := Build(source, filepath.Join(t.TempDir(), "missing-dir", "out.zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIOFailure)
}
