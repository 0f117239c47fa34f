package formscan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateSink blocks the first build inside its first status update until
// released, so tests can hold a build in flight deterministically.
type gateSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateSink() *gateSink {
	return &gateSink{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gateSink) SetMax(int) {}
func (s *gateSink) Step(int)   {}

func (s *gateSink) SetStatus(string) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
}

func TestIndexerRescan(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	ix := NewIndexer()
	defer ix.Close()

	assert.Nil(t, ix.Index())

	ix.Rescan(context.Background(), ar.data)
	idx, err := ix.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, len(ar.data), idx.Size())
	assert.Same(t, idx, ix.Index())
}

func TestIndexerRescanSupersedes(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	small := smallArchive()

	ix := NewIndexer()
	defer ix.Close()

	ix.Rescan(context.Background(), small)
	ix.Rescan(context.Background(), ar.data)

	idx, err := ix.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, len(ar.data), idx.Size())
}

// smallArchive builds an archive whose size differs from the main fixture so
// tests can tell the two indexes apart.
func smallArchive() []byte {
	data := []byte("FORM")
	data = append(data, 4, 0, 0, 0)
	return append(data, []byte("GENX")...)
}

func TestIndexerSupersededBuildDiscarded(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	small := smallArchive()

	sink := newGateSink()
	results := make(chan *Index, 2)
	ix := NewIndexer(
		WithProgress(sink),
		WithResultFunc(func(idx *Index, err error) {
			assert.NoError(t, err)
			results <- idx
		}),
	)
	defer ix.Close()

	// Hold the first build in flight, then supersede it.
	ix.Rescan(context.Background(), small)
	<-sink.entered
	ix.Rescan(context.Background(), ar.data)
	close(sink.release)

	idx, err := ix.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, len(ar.data), idx.Size())

	select {
	case got := <-results:
		assert.Same(t, idx, got)
	case <-time.After(5 * time.Second):
		t.Fatal("result callback never fired")
	}
}

func TestIndexerRescanFile(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	path := filepath.Join(t.TempDir(), "game.win")
	require.NoError(t, os.WriteFile(path, ar.data, 0o644))

	sink := &recordSink{}
	ix := NewIndexer(WithProgress(sink))
	defer ix.Close()

	ix.RescanFile(context.Background(), path)
	idx, err := ix.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, len(ar.data), idx.Size())

	_, _, _, statuses := sink.snapshot()
	require.NotEmpty(t, statuses)
	assert.Equal(t, "Reading file into memory...", statuses[0])
}

func TestIndexerRescanFileMissing(t *testing.T) {
	t.Parallel()

	ar := buildTestArchive(t)
	ix := NewIndexer()
	defer ix.Close()

	ix.Rescan(context.Background(), ar.data)
	prior, err := ix.Wait(context.Background())
	require.NoError(t, err)

	ix.RescanFile(context.Background(), filepath.Join(t.TempDir(), "missing.win"))
	idx, err := ix.Wait(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// The failed build leaves the prior index published.
	assert.Same(t, prior, idx)
	assert.Same(t, prior, ix.Index())
}

func TestIndexerWait(t *testing.T) {
	t.Parallel()

	t.Run("no builds", func(t *testing.T) {
		t.Parallel()
		ix := NewIndexer()
		defer ix.Close()

		idx, err := ix.Wait(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, idx)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ar := buildTestArchive(t)
		sink := newGateSink()
		ix := NewIndexer(WithProgress(sink))
		defer ix.Close()

		ix.Rescan(context.Background(), ar.data)
		<-sink.entered

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ix.Wait(ctx)
		assert.ErrorIs(t, err, context.Canceled)

		close(sink.release)
	})
}

func TestIndexerClose(t *testing.T) {
	t.Parallel()

	t.Run("index stays readable", func(t *testing.T) {
		t.Parallel()
		ar := buildTestArchive(t)
		ix := NewIndexer()

		ix.Rescan(context.Background(), ar.data)
		idx, err := ix.Wait(context.Background())
		require.NoError(t, err)

		ix.Close()
		ix.Close() // idempotent

		assert.Same(t, idx, ix.Index())

		idx2, err := ix.Wait(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Same(t, idx, idx2)
	})

	t.Run("rescan after close ignored", func(t *testing.T) {
		t.Parallel()
		ar := buildTestArchive(t)
		ix := NewIndexer()
		ix.Close()

		ix.Rescan(context.Background(), ar.data)
		idx, err := ix.Wait(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, idx)
	})

	t.Run("close during build discards it", func(t *testing.T) {
		t.Parallel()
		ar := buildTestArchive(t)
		sink := newGateSink()
		ix := NewIndexer(WithProgress(sink))

		ix.Rescan(context.Background(), ar.data)
		<-sink.entered
		ix.Close()
		close(sink.release)

		idx, err := ix.Wait(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, idx)
		assert.Nil(t, ix.Index())
	})
}
