package formscan

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/formscan/internal/testutil"
)

// readTree reads every file under dir keyed by slash-separated relative path.
func readTree(t *testing.T, dir string) map[string][]byte {
	t.Helper()

	tree := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = content
		return nil
	})
	require.NoError(t, err)
	return tree
}

func TestExportAsset(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	idx := mustScan(t, ar.data)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		img := idx.Images()[0]
		dest := filepath.Join(t.TempDir(), "out", "hero.png")

		require.NoError(t, idx.ExportAsset(img, dest))
		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, ar.png, got)
	})

	t.Run("bad span", func(t *testing.T) {
		t.Parallel()
		dest := filepath.Join(t.TempDir(), "bad.bin")
		err := idx.ExportAsset(Asset{Start: -1, End: 4}, dest)
		assert.ErrorIs(t, err, ErrRange)
		assert.NoFileExists(t, dest)
	})
}

func TestExportChunk(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	idx := mustScan(t, ar.data)

	c, ok := idx.ChunkByTag(TagStrings)
	require.True(t, ok)

	dest := filepath.Join(t.TempDir(), "strg.bin")
	require.NoError(t, idx.ExportChunk(c, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, testutil.Strings(ar.strs...), got)
}

func TestExportStrings(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	idx := mustScan(t, ar.data)

	dest := filepath.Join(t.TempDir(), "strings.txt")
	require.NoError(t, idx.ExportStrings(dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(ar.strs, "\n")+"\n", string(got))
}

func TestExportAll(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	idx := mustScan(t, ar.data)
	dir := t.TempDir()

	stats, err := idx.ExportAll(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.FileCount)
	assert.Equal(t, 0, stats.Skipped)

	tree := readTree(t, dir)
	require.Len(t, tree, 4)
	assert.Equal(t, ar.png, tree["images/spr_hero_0_0.png"])
	assert.Equal(t, ar.wav, tree["sounds/spr_hero_0_0.wav"])
	assert.Equal(t, ar.ogg, tree["sounds/spr_hero_0_1.ogg"])
	assert.True(t, strings.HasPrefix(string(tree["scripts/scr_main_0.txt"]), "scr_main"))

	var total uint64
	for _, content := range tree {
		total += uint64(len(content))
	}
	assert.Equal(t, total, stats.TotalBytes)

	t.Run("existing files skipped", func(t *testing.T) {
		again, err := idx.ExportAll(dir)
		require.NoError(t, err)
		assert.Equal(t, 0, again.FileCount)
		assert.Equal(t, 4, again.Skipped)
	})

	t.Run("overwrite rewrites", func(t *testing.T) {
		again, err := idx.ExportAll(dir, ExportWithOverwrite(true))
		require.NoError(t, err)
		assert.Equal(t, 4, again.FileCount)
		assert.Equal(t, 0, again.Skipped)
	})
}

func TestExportAllWorkers(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	idx := mustScan(t, ar.data)
	dir := t.TempDir()

	stats, err := idx.ExportAll(dir, ExportWithWorkers(1))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.FileCount)
}

func TestExportAllEmpty(t *testing.T) {
	t.Parallel()

	idx := mustScan(t, nil)
	dir := t.TempDir()

	stats, err := idx.ExportAll(dir)
	require.NoError(t, err)
	assert.Equal(t, ExportStats{}, stats)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteZip(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	idx := mustScan(t, ar.data)

	var buf bytes.Buffer
	stats, err := idx.WriteZip(&buf)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.FileCount)

	// The zip holds the same tree ExportAll writes to disk.
	dir := t.TempDir()
	_, err = idx.ExportAll(dir)
	require.NoError(t, err)
	disk := readTree(t, dir)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	zipped := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		zipped[f.Name] = content
	}
	assert.Equal(t, disk, zipped)
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"spr_hero_0", "spr_hero_0"},
		{"a b", "a_b"},
		{"x/y:z", "x_y_z"},
		{"ok._-09", "ok._-09"},
		{"héllo", "héllo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), "input %q", tt.in)
	}
}
