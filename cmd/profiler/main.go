package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/felixge/fgprof"
	"github.com/meigma/formscan"
	"github.com/meigma/formscan/internal/testutil"
)

type config struct {
	mode       string
	images     int
	imageSize  int
	sounds     int
	soundSize  int
	roomWords  int
	junk       int
	workers    int
	cold       bool
	readRandom bool
	fgProfile  string
	duration   time.Duration
	iterations int
	pprofAddr  string
	cpuProfile string
	memProfile string
	traceFile  string
	tempDir    string
	keepTemp   bool
	randomSeed int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkBytes []byte
	sinkIndex *formscan.Index
	sinkCount int
)

//nolint:gocognit // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	data, err := makeArchive(cfg)
	if err != nil {
		log.Fatal(err)
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	var stopFG func() error
	if cfg.fgProfile != "" {
		fgFile, fgErr := os.Create(cfg.fgProfile)
		if fgErr != nil {
			log.Fatal(fgErr) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
		}
		stopFG = fgprof.Start(fgFile, fgprof.FormatPprof)
		defer func() {
			if err := stopFG(); err != nil {
				log.Printf("fgprof stop error: %v", err)
			}
			_ = fgFile.Close()
		}()
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, data, dir)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocyclo,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(cfg config, data []byte, rootDir string) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	switch cfg.mode {
	case "scan":
		for shouldContinue() {
			idx, err := formscan.Scan(data)
			if err != nil {
				return profileStats{}, err
			}
			sinkIndex = idx
			byteCount += int64(len(data))
			ops++
		}

	case "decode":
		for shouldContinue() {
			idx, err := formscan.Scan(data)
			if err != nil {
				return profileStats{}, err
			}
			if err := idx.DecodeImages(context.Background(), cfg.workers); err != nil {
				return profileStats{}, err
			}
			sinkIndex = idx
			for _, a := range idx.Images() {
				byteCount += int64(a.End - a.Start)
			}
			ops++
		}

	case "strings":
		for shouldContinue() {
			strs := formscan.HarvestStrings(data, 0, len(data))
			sinkCount = len(strs)
			byteCount += int64(len(data))
			ops++
		}

	case "readbytes":
		idx, err := formscan.Scan(data)
		if err != nil {
			return profileStats{}, err
		}
		var assets []formscan.Asset
		for a := range idx.Assets() {
			assets = append(assets, a)
		}
		if len(assets) == 0 {
			return profileStats{}, errors.New("readbytes requires at least one asset")
		}
		rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
		for shouldContinue() {
			a := pickAsset(assets, ops, rng, cfg.readRandom)
			content, err := idx.ReadBytes(a.Start, a.End)
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = content
			byteCount += int64(len(content))
			ops++
		}

	case "export":
		idx, err := formscan.Scan(data)
		if err != nil {
			return profileStats{}, err
		}
		if cfg.cold {
			for shouldContinue() {
				destDir := filepath.Join(rootDir, "export", fmt.Sprintf("iter-%d", ops))
				stats, err := idx.ExportAll(destDir, formscan.ExportWithWorkers(cfg.workers))
				if err != nil {
					return profileStats{}, err
				}
				if err := os.RemoveAll(destDir); err != nil {
					return profileStats{}, err
				}
				byteCount += int64(stats.TotalBytes) //nolint:gosec // bounded by the generated archive size
				ops++
			}
		} else {
			destDir := filepath.Join(rootDir, "export")
			for shouldContinue() {
				stats, err := idx.ExportAll(destDir,
					formscan.ExportWithWorkers(cfg.workers),
					formscan.ExportWithOverwrite(true),
				)
				if err != nil {
					return profileStats{}, err
				}
				byteCount += int64(stats.TotalBytes) //nolint:gosec // bounded by the generated archive size
				ops++
			}
		}

	case "zip":
		idx, err := formscan.Scan(data)
		if err != nil {
			return profileStats{}, err
		}
		for shouldContinue() {
			var n countingWriter
			if _, err := idx.WriteZip(&n); err != nil {
				return profileStats{}, err
			}
			byteCount += int64(n)
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "scan", "mode: scan, decode, strings, readbytes, export, zip")
	flag.IntVar(&cfg.images, "images", 64, "number of embedded images")
	flag.IntVar(&cfg.imageSize, "image-size", 64, "image width and height in pixels")
	flag.IntVar(&cfg.sounds, "sounds", 32, "number of embedded sounds")
	flag.IntVar(&cfg.soundSize, "sound-size", 32<<10, "sound payload size in bytes")
	flag.IntVar(&cfg.roomWords, "room-words", 4096, "number of coordinate words in the room chunk")
	flag.IntVar(&cfg.junk, "junk", 4096, "junk bytes between chunks")
	flag.IntVar(&cfg.workers, "workers", 0, "decode/export workers: <=0 uses GOMAXPROCS")
	flag.BoolVar(&cfg.cold, "cold", true, "recreate the export destination each iteration")
	flag.BoolVar(&cfg.readRandom, "read-random", true, "randomize readbytes asset selection")
	flag.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for export destinations")
	flag.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.Parse()
	return cfg
}

func pickAsset(assets []formscan.Asset, idx int, rng *rand.Rand, random bool) formscan.Asset {
	if random {
		return assets[rng.Intn(len(assets))]
	}
	return assets[idx%len(assets)]
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		return cfg.tempDir, nil, os.MkdirAll(cfg.tempDir, 0o755) //nolint:gosec // 0o755 is intentional for profiler temp dirs
	}
	dir, err := os.MkdirTemp("", "formscan-profiler-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() error {
		if cfg.keepTemp {
			return nil
		}
		return os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

// makeArchive builds a synthetic archive in memory: a string table naming
// every asset, a texture chunk of random-pixel PNGs, an audio chunk of WAV
// blobs, a room chunk of coordinate words, and optional zero padding between
// chunks to exercise the byte-sliding scan.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func makeArchive(cfg config) ([]byte, error) {
	rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional use for reproducible benchmarks

	names := make([]string, 0, cfg.images+cfg.sounds+4)
	for i := range cfg.images {
		names = append(names, fmt.Sprintf("spr_bench_%d", i))
	}
	for i := range cfg.sounds {
		names = append(names, fmt.Sprintf("snd_bench_%d", i))
	}
	names = append(names, "scr_bench_setup", "room_bench_main", "obj_bench_actor", "fnt_bench_mono")

	var textures bytes.Buffer
	for range cfg.images {
		img, err := pngBytes(rng, cfg.imageSize)
		if err != nil {
			return nil, err
		}
		textures.Write(img)
	}

	var audio bytes.Buffer
	for range cfg.sounds {
		payload := make([]byte, cfg.soundSize)
		if _, err := rng.Read(payload); err != nil {
			return nil, err
		}
		copy(payload, "WAVEfmt ")
		audio.Write(testutil.WAV(payload))
	}

	room := make([]byte, 0, cfg.roomWords*4)
	for range cfg.roomWords {
		room = binary.LittleEndian.AppendUint32(room, uint32(rng.Int31n(8000)))
	}

	gen8 := make([]byte, 16)
	if _, err := rng.Read(gen8); err != nil {
		return nil, err
	}

	pad := make([]byte, cfg.junk)
	return testutil.Form(
		testutil.Chunk("GEN8", gen8),
		pad,
		testutil.Chunk("STRG", testutil.Strings(names...)),
		pad,
		testutil.Chunk("TXTR", textures.Bytes()),
		pad,
		testutil.Chunk("AUDO", audio.Bytes()),
		pad,
		testutil.Chunk("ROOM", room),
	), nil
}

func pngBytes(rng *rand.Rand, size int) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	if _, err := rng.Read(img.Pix); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter int64

func (w *countingWriter) Write(p []byte) (int, error) {
	*w += countingWriter(len(p))
	return len(p), nil
}
