package formscan

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/formscan/internal/testutil"
)

func TestScanChunks(t *testing.T) {
	t.Parallel()

	t.Run("flat sequence", func(t *testing.T) {
		t.Parallel()
		a := testutil.Chunk("AAAA", []byte{1, 2, 3})
		b := testutil.Chunk("BBBB", []byte{4, 5, 6, 7})
		data := append(append([]byte{}, a...), b...)

		chunks := ScanChunks(data, 0, len(data))
		require.Len(t, chunks, 2)
		assert.Equal(t, Chunk{Tag: "AAAA", HeaderOffset: 0, Size: 3, ContentStart: 8, ContentEnd: 11}, chunks[0])
		assert.Equal(t, Chunk{Tag: "BBBB", HeaderOffset: 11, Size: 4, ContentStart: 19, ContentEnd: 23}, chunks[1])
	})

	t.Run("nested chunks in pre-order", func(t *testing.T) {
		t.Parallel()
		child := testutil.Chunk("CHLD", []byte{1, 2, 3, 4})
		parent := testutil.Chunk("PRNT", child)

		chunks := ScanChunks(parent, 0, len(parent))
		require.Len(t, chunks, 2)
		assert.Equal(t, "PRNT", chunks[0].Tag)
		assert.Equal(t, "CHLD", chunks[1].Tag)
		assert.Equal(t, chunks[0].ContentStart, chunks[1].HeaderOffset)
		assert.LessOrEqual(t, chunks[1].ContentEnd, chunks[0].ContentEnd)
	})

	t.Run("unaligned discovery", func(t *testing.T) {
		t.Parallel()
		data := append([]byte{0xAB, 0xCD, 0xEF}, testutil.Chunk("TAGX", []byte{1, 2})...)

		chunks := ScanChunks(data, 0, len(data))
		require.Len(t, chunks, 1)
		assert.Equal(t, 3, chunks[0].HeaderOffset)
	})

	t.Run("lowercase tag ignored", func(t *testing.T) {
		t.Parallel()
		data := binary.LittleEndian.AppendUint32([]byte("abcd"), 2)
		data = append(data, 1, 2)

		assert.Empty(t, ScanChunks(data, 0, len(data)))
	})

	t.Run("zero size ignored", func(t *testing.T) {
		t.Parallel()
		data := binary.LittleEndian.AppendUint32([]byte("AAAA"), 0)
		data = append(data, 1, 2)

		assert.Empty(t, ScanChunks(data, 0, len(data)))
	})

	t.Run("oversized candidate ignored", func(t *testing.T) {
		t.Parallel()
		data := binary.LittleEndian.AppendUint32([]byte("AAAA"), 1000)
		data = append(data, 1, 2)

		assert.Empty(t, ScanChunks(data, 0, len(data)))
	})

	t.Run("cursor resumes past content", func(t *testing.T) {
		t.Parallel()
		// The first chunk's content holds tag-shaped bytes whose size
		// overruns the content span; they must not leak out as chunks.
		inner := binary.LittleEndian.AppendUint32([]byte("EVIL"), 60000)
		inner = append(inner, 0, 0)
		first := testutil.Chunk("GOOD", inner)
		second := testutil.Chunk("NEXT", []byte{7, 7, 7})
		data := append(append([]byte{}, first...), second...)

		chunks := ScanChunks(data, 0, len(data))
		require.Len(t, chunks, 2)
		assert.Equal(t, "GOOD", chunks[0].Tag)
		assert.Equal(t, "NEXT", chunks[1].Tag)
	})

	t.Run("span clamped to buffer", func(t *testing.T) {
		t.Parallel()
		data := testutil.Chunk("AAAA", []byte{1, 2, 3})

		chunks := ScanChunks(data, -10, len(data)+10)
		require.Len(t, chunks, 1)
		assert.Equal(t, "AAAA", chunks[0].Tag)
	})

	t.Run("empty buffer", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, ScanChunks(nil, 0, 0))
	})
}
