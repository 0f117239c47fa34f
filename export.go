package formscan

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/klauspost/compress/flate"
	"golang.org/x/sync/errgroup"
)

// Subdirectories written by ExportAll and WriteZip.
const (
	imagesDir  = "images"
	soundsDir  = "sounds"
	scriptsDir = "scripts"
)

// ExportStats reports what an export operation produced.
type ExportStats struct {
	// FileCount is the number of files written.
	FileCount int

	// TotalBytes is the sum of the written file sizes.
	TotalBytes uint64

	// Skipped is the number of files left untouched because they
	// already existed.
	Skipped int
}

// ExportOption configures ExportAll.
type ExportOption func(*exportConfig)

type exportConfig struct {
	overwrite bool
	workers   int
}

// ExportWithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func ExportWithOverwrite(overwrite bool) ExportOption {
	return func(c *exportConfig) {
		c.overwrite = overwrite
	}
}

// ExportWithWorkers sets the number of workers for parallel writes.
// Values <= 0 use runtime.GOMAXPROCS.
func ExportWithWorkers(n int) ExportOption {
	return func(c *exportConfig) {
		c.workers = n
	}
}

// ExportAsset writes an asset's raw byte span to path.
//
// The span is written exactly as it appears in the buffer; callers
// typically pick the file extension with [AssetKind.Ext]. Parent
// directories are created as needed and the file lands via a temp
// file and rename.
func (x *Index) ExportAsset(a Asset, dest string) error {
	data, err := x.ReadBytes(a.Start, a.End)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(dest, data); err != nil {
		return fmt.Errorf("formscan: export %s: %w", dest, err)
	}
	return nil
}

// ExportChunk writes a chunk's content span to path.
func (x *Index) ExportChunk(c Chunk, dest string) error {
	data, err := x.ReadBytes(c.ContentStart, c.ContentEnd)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(dest, data); err != nil {
		return fmt.Errorf("formscan: export %s: %w", dest, err)
	}
	return nil
}

// ExportStrings writes the harvested strings to path, one per line.
func (x *Index) ExportStrings(dest string) error {
	var b strings.Builder
	for _, s := range x.strings {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(dest, []byte(b.String())); err != nil {
		return fmt.Errorf("formscan: export %s: %w", dest, err)
	}
	return nil
}

// ExportAll writes every indexed asset under dir.
//
// Images land in images/, audio in sounds/, and script previews in
// scripts/, named <sanitized>_<index> plus the kind's extension.
//
// Files are written atomically using temp files and renames, in
// parallel. By default existing files are skipped; use
// [ExportWithOverwrite] to overwrite them instead.
func (x *Index) ExportAll(dir string, opts ...ExportOption) (ExportStats, error) {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	files := x.exportPlan()
	if len(files) == 0 {
		return ExportStats{}, nil
	}

	workers := cfg.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(files) {
		workers = len(files)
	}

	var (
		written    atomic.Int64
		totalBytes atomic.Uint64
		skipped    atomic.Int64
	)

	var eg errgroup.Group
	eg.SetLimit(workers)
	for _, f := range files {
		eg.Go(func() error {
			dest := filepath.Join(dir, filepath.FromSlash(f.relPath))
			if !cfg.overwrite {
				if _, err := os.Stat(dest); err == nil {
					skipped.Add(1)
					return nil
				}
			}
			data, err := x.exportContent(f)
			if err != nil {
				return err
			}
			if err := writeFileAtomic(dest, data); err != nil {
				return fmt.Errorf("formscan: export %s: %w", f.relPath, err)
			}
			written.Add(1)
			totalBytes.Add(uint64(len(data)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return ExportStats{}, err
	}

	return ExportStats{
		FileCount:  int(written.Load()),
		TotalBytes: totalBytes.Load(),
		Skipped:    int(skipped.Load()),
	}, nil
}

// WriteZip writes the ExportAll tree as a zip archive to w.
//
// Entries are deflated with github.com/klauspost/compress/flate.
func (x *Index) WriteZip(w io.Writer) (ExportStats, error) {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	var stats ExportStats
	for _, f := range x.exportPlan() {
		data, err := x.exportContent(f)
		if err != nil {
			_ = zw.Close() //nolint:errcheck // surface the content error
			return ExportStats{}, err
		}
		ew, err := zw.Create(f.relPath)
		if err != nil {
			return ExportStats{}, fmt.Errorf("formscan: zip entry %s: %w", f.relPath, err)
		}
		if _, err := ew.Write(data); err != nil {
			return ExportStats{}, fmt.Errorf("formscan: zip entry %s: %w", f.relPath, err)
		}
		stats.FileCount++
		stats.TotalBytes += uint64(len(data))
	}
	if err := zw.Close(); err != nil {
		return ExportStats{}, fmt.Errorf("formscan: close zip: %w", err)
	}
	return stats, nil
}

// exportFile is one planned output of ExportAll or WriteZip.
//
// Asset and chunk entries carry a byte span; script entries carry the
// script name and resolve their content through ScriptPreview.
type exportFile struct {
	relPath string
	start   int
	end     int
	script  string
}

// exportPlan lays out the export tree.
//
// Assets keep their index position in the file name so that distinct
// assets sharing a sanitized name never collide.
func (x *Index) exportPlan() []exportFile {
	files := make([]exportFile, 0, len(x.images)+len(x.audio)+len(x.sets.scripts))
	for i, a := range x.images {
		files = append(files, exportFile{
			relPath: path.Join(imagesDir, fmt.Sprintf("%s_%d%s", sanitizeName(a.Name), i, a.Kind.Ext())),
			start:   a.Start,
			end:     a.End,
		})
	}
	for i, a := range x.audio {
		files = append(files, exportFile{
			relPath: path.Join(soundsDir, fmt.Sprintf("%s_%d%s", sanitizeName(a.Name), i, a.Kind.Ext())),
			start:   a.Start,
			end:     a.End,
		})
	}
	for i, name := range x.sets.scripts {
		files = append(files, exportFile{
			relPath: path.Join(scriptsDir, fmt.Sprintf("%s_%d.txt", sanitizeName(name), i)),
			script:  name,
		})
	}
	return files
}

func (x *Index) exportContent(f exportFile) ([]byte, error) {
	if f.script != "" {
		if text, ok := x.ScriptPreview(f.script); ok {
			return []byte(text), nil
		}
		return []byte(f.script), nil
	}
	return x.ReadBytes(f.start, f.end)
}

// sanitizeName maps a harvested name onto a filesystem-safe base name.
// Letters, digits, '.', '_' and '-' pass through; everything else
// becomes '_'.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// writeFileAtomic writes data to dest via a temp file in the same
// directory followed by a rename, so a partially written file is never
// visible at the final path.
func writeFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".formscan-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()        //nolint:errcheck // we're cleaning up
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", dest, err)
	}
	return nil
}
