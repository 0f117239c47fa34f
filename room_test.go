package formscan

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meigma/formscan/internal/testutil"
)

// roomPayload encodes words as little-endian 32-bit values.
func roomPayload(words ...int32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, uint32(w))
	}
	return out
}

func TestRoomPoints(t *testing.T) {
	t.Parallel()

	t.Run("overlapping pairs in plausible range", func(t *testing.T) {
		t.Parallel()
		data := testutil.Form(testutil.Chunk("ROOM", roomPayload(1, 2, 3, 4)))
		idx := mustScan(t, data)

		// The walk advances 4 bytes at a time, so consecutive pairs
		// share a coordinate.
		assert.Equal(t, []image.Point{{X: 1, Y: 2}, {X: 2, Y: 3}}, idx.RoomPoints())
	})

	t.Run("implausible values dropped", func(t *testing.T) {
		t.Parallel()
		data := testutil.Form(testutil.Chunk("ROOM", roomPayload(100, 200, 9999, 50)))
		idx := mustScan(t, data)

		assert.Equal(t, []image.Point{{X: 100, Y: 200}}, idx.RoomPoints())
	})

	t.Run("negative values dropped", func(t *testing.T) {
		t.Parallel()
		data := testutil.Form(testutil.Chunk("ROOM", roomPayload(-1, 5, 5, 5)))
		idx := mustScan(t, data)

		assert.Equal(t, []image.Point{{X: 5, Y: 5}}, idx.RoomPoints())
	})

	t.Run("multiple room chunks combine", func(t *testing.T) {
		t.Parallel()
		data := testutil.Form(
			testutil.Chunk("ROOM", roomPayload(1, 1, 1)),
			testutil.Chunk("ROOM", roomPayload(2, 2, 2)),
		)
		idx := mustScan(t, data)

		assert.Equal(t, []image.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, idx.RoomPoints())
	})

	t.Run("stride sampling thins large sets", func(t *testing.T) {
		t.Parallel()
		data := testutil.Form(testutil.Chunk("ROOM", bytes.Repeat(roomPayload(1), 13000)))
		idx := mustScan(t, data)

		// 12998 raw points, stride 2.
		assert.Len(t, idx.RoomPoints(), 6499)
	})

	t.Run("stride of one keeps everything", func(t *testing.T) {
		t.Parallel()
		// Just past the cap the integer stride is still 1, so nothing
		// is dropped.
		data := testutil.Form(testutil.Chunk("ROOM", bytes.Repeat(roomPayload(1), 7002)))
		idx := mustScan(t, data)

		assert.Len(t, idx.RoomPoints(), 7000)
	})

	t.Run("no room chunks", func(t *testing.T) {
		t.Parallel()
		ar := buildTestArchive(t)
		idx := mustScan(t, ar.data)

		assert.Empty(t, idx.RoomPoints())
	})
}
