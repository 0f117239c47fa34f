package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/meigma/formscan"
)

type config struct {
	file      string
	list      bool
	strings   bool
	export    string
	zipFile   string
	workers   int
	overwrite bool
	quiet     bool
	verbose   bool
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.file, "file", "", "archive file to scan (required)")
	flag.BoolVar(&cfg.list, "list", false, "print chunks, assets, and name groups")
	flag.BoolVar(&cfg.strings, "strings", false, "print every harvested string")
	flag.StringVar(&cfg.export, "export", "", "export all assets under this directory")
	flag.StringVar(&cfg.zipFile, "zip", "", "write all assets to this zip file")
	flag.IntVar(&cfg.workers, "workers", 0, "export workers: <=0 uses GOMAXPROCS")
	flag.BoolVar(&cfg.overwrite, "overwrite", false, "overwrite files that already exist on export")
	flag.BoolVar(&cfg.quiet, "quiet", false, "suppress progress output")
	flag.BoolVar(&cfg.verbose, "v", false, "enable debug logging")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.file == "" {
		flag.Usage()
		os.Exit(2)
	}

	var opts []formscan.Option
	if !cfg.quiet {
		opts = append(opts, formscan.WithProgress(&consoleSink{out: os.Stderr}))
	}
	if cfg.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, formscan.WithLogger(logger))
	}

	ix := formscan.NewIndexer(opts...)
	defer ix.Close()

	ctx := context.Background()
	ix.RescanFile(ctx, cfg.file)
	idx, err := ix.Wait(ctx)
	if err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - close is best-effort
	}

	if cfg.list || (!cfg.strings && cfg.export == "" && cfg.zipFile == "") {
		printSummary(idx)
	}

	if cfg.strings {
		for _, s := range idx.Strings() {
			fmt.Println(s)
		}
	}

	if cfg.export != "" {
		stats, err := idx.ExportAll(cfg.export,
			formscan.ExportWithWorkers(cfg.workers),
			formscan.ExportWithOverwrite(cfg.overwrite),
		)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("exported files=%d bytes=%d skipped=%d dir=%s\n",
			stats.FileCount, stats.TotalBytes, stats.Skipped, cfg.export)
	}

	if cfg.zipFile != "" {
		if err := writeZipFile(idx, cfg.zipFile); err != nil {
			log.Fatal(err)
		}
	}
}

func printSummary(idx *formscan.Index) {
	form := idx.Form()
	if form.Located() {
		fmt.Printf("FORM @ %d, content %d..%d of %d bytes\n",
			form.HeaderOffset, form.ContentStart, form.ContentEnd, idx.Size())
	} else {
		fmt.Printf("no FORM root, scanned all %d bytes\n", idx.Size())
	}

	chunks := idx.Chunks()
	fmt.Printf("chunks (%d):\n", len(chunks))
	for _, c := range chunks {
		fmt.Printf("  %s @ %-10d size %d\n", c.Tag, c.HeaderOffset, c.Size)
	}

	images := idx.Images()
	fmt.Printf("images (%d):\n", len(images))
	for _, a := range images {
		printAsset(a)
	}

	audio := idx.Audio()
	fmt.Printf("audio (%d):\n", len(audio))
	for _, a := range audio {
		printAsset(a)
	}

	if groups := idx.SpriteGroups(); len(groups) > 0 {
		fmt.Printf("sprites (%d):\n", len(groups))
		for _, g := range groups {
			fmt.Printf("  %-24s %d frames\n", g.Name, len(g.Frames))
		}
	}

	fmt.Printf("strings=%d scripts=%d rooms=%d objects=%d fonts=%d room-points=%d\n",
		len(idx.Strings()), len(idx.Scripts()), len(idx.Rooms()),
		len(idx.Objects()), len(idx.Fonts()), len(idx.RoomPoints()))
}

func printAsset(a formscan.Asset) {
	fmt.Printf("  %-24s %s %d..%d (%d bytes)\n", a.Name, a.Kind, a.Start, a.End, a.End-a.Start)
}

func writeZipFile(idx *formscan.Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	stats, err := idx.WriteZip(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("zipped files=%d bytes=%d file=%s\n", stats.FileCount, stats.TotalBytes, path)
	return nil
}

var _ formscan.ProgressSink = (*consoleSink)(nil)

// consoleSink prints each status change as a counted line.
type consoleSink struct {
	out io.Writer

	mu    sync.Mutex
	max   int
	steps int
}

func (s *consoleSink) SetMax(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.max = n
}

func (s *consoleSink) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "[%d/%d] %s\n", s.steps, s.max, status)
}

func (s *consoleSink) Step(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps += n
}
