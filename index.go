package formscan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"iter"
	"log/slog"
	"runtime"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Index is the result of scanning one archive.
//
// An Index owns the scanned buffer and is immutable once produced: readers
// on any goroutine need no locking. The only internal mutation is the
// at-most-once memoization of decoded images, which is safe under races.
// Accessors return the internal slices; callers must treat them as
// read-only. A new load produces a whole new Index, never an update.
type Index struct {
	data    []byte
	form    FormBounds
	chunks  []Chunk
	strings []string
	images  []Asset
	audio   []Asset
	groups  []SpriteGroup
	sets    stringSets

	decodeGroup singleflight.Group
	decoded     []atomic.Pointer[image.Image]

	logger *slog.Logger
}

// newIndex assembles the published index, deriving sprite groups and sizing
// the decode memo arena.
func newIndex(data []byte, form FormBounds, chunks []Chunk, strs []string, images, audio []Asset, sets stringSets, logger *slog.Logger) *Index {
	return &Index{
		data:    data,
		form:    form,
		chunks:  chunks,
		strings: strs,
		images:  images,
		audio:   audio,
		groups:  groupSprites(images),
		sets:    sets,
		decoded: make([]atomic.Pointer[image.Image], len(images)),
		logger:  logger,
	}
}

// log returns the logger or a discard logger.
func (x *Index) log() *slog.Logger {
	if x.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return x.logger
}

// Form returns the root span the scan operated on.
func (x *Index) Form() FormBounds { return x.form }

// Size returns the length of the scanned buffer in bytes.
func (x *Index) Size() int { return len(x.data) }

// Chunks returns the deduplicated chunk list in discovery order. When the
// root was located by signature, the first row is the synthetic FORM chunk
// covering the root span.
func (x *Index) Chunks() []Chunk { return x.chunks }

// Strings returns the harvested strings, first-seen order, no duplicates.
func (x *Index) Strings() []string { return x.strings }

// Images returns the image asset ranges in discovery order.
func (x *Index) Images() []Asset { return x.images }

// Audio returns the audio asset ranges, RIFF results before Ogg results.
func (x *Index) Audio() []Asset { return x.audio }

// SpriteGroups returns image assets grouped by sprite naming convention.
func (x *Index) SpriteGroups() []SpriteGroup { return x.groups }

// Scripts returns harvested strings carrying a script name prefix.
func (x *Index) Scripts() []string { return x.sets.scripts }

// Rooms returns harvested strings carrying the room name prefix.
func (x *Index) Rooms() []string { return x.sets.rooms }

// Objects returns harvested strings carrying the object name prefix.
func (x *Index) Objects() []string { return x.sets.objects }

// Fonts returns harvested strings carrying the font name prefix.
func (x *Index) Fonts() []string { return x.sets.fonts }

// ChunkByTag returns the first chunk with the given tag in discovery order.
func (x *Index) ChunkByTag(tag string) (Chunk, bool) {
	for _, c := range x.chunks {
		if c.Tag == tag {
			return c, true
		}
	}
	return Chunk{}, false
}

// Assets iterates over every asset range, images first, then audio.
func (x *Index) Assets() iter.Seq[Asset] {
	return func(yield func(Asset) bool) {
		for _, a := range x.images {
			if !yield(a) {
				return
			}
		}
		for _, a := range x.audio {
			if !yield(a) {
				return
			}
		}
	}
}

// ReadBytes returns a copy of the buffer span [start, end).
//
// This is the single accessor behind export and materialization: for any
// asset or chunk, the returned bytes are exactly the stored span, suitable
// for writing verbatim to a file.
func (x *Index) ReadBytes(start, end int) ([]byte, error) {
	if start < 0 || end < start || end > len(x.data) {
		return nil, fmt.Errorf("formscan: read bytes [%d:%d) of %d: %w", start, end, len(x.data), ErrRange)
	}
	return bytes.Clone(x.data[start:end]), nil
}

// Image decodes image asset i, memoizing the result.
//
// The first successful decode per range is cached and returned to all
// callers; concurrent decodes of the same range are deduplicated and racing
// winners discarded, so the artifact is decoded effectively once. Decode
// failures are not cached: a later call retries.
func (x *Index) Image(i int) (image.Image, error) {
	if i < 0 || i >= len(x.images) {
		return nil, fmt.Errorf("formscan: image %d of %d: %w", i, len(x.images), ErrNoImage)
	}
	if img := x.decoded[i].Load(); img != nil {
		return *img, nil
	}

	v, err, _ := x.decodeGroup.Do(strconv.Itoa(i), func() (any, error) {
		// Double-check after winning the flight.
		if img := x.decoded[i].Load(); img != nil {
			return *img, nil
		}
		a := x.images[i]
		img, err := png.Decode(bytes.NewReader(x.data[a.Start:a.End]))
		if err != nil {
			return nil, fmt.Errorf("formscan: decode image %d (%s): %w", i, a.Name, err)
		}
		x.decoded[i].CompareAndSwap(nil, &img)
		x.log().Debug("image decoded", "index", i, "name", a.Name)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// DecodeImages warms the image memo with a bounded worker pool.
//
// workers <= 0 uses GOMAXPROCS. Already-decoded ranges are skipped. The
// first decode failure cancels the remaining work and is returned;
// successfully decoded ranges stay cached either way.
func (x *Index) DecodeImages(ctx context.Context, workers int) error {
	if len(x.images) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, ctx := errgroup.WithContext(ctx)
	indices := make(chan int)
	eg.Go(func() error {
		defer close(indices)
		for i := range x.images {
			if x.decoded[i].Load() != nil {
				continue
			}
			select {
			case indices <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for range workers {
		eg.Go(func() error {
			for i := range indices {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := x.Image(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return eg.Wait()
}
