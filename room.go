package formscan

import (
	"encoding/binary"
	"image"
)

const (
	// roomCoordLimit bounds plausible room coordinates. Values at or past
	// it are treated as unrelated data.
	roomCoordLimit = 8000

	// roomPointCap caps the points returned to keep sketches cheap.
	roomPointCap = 6000
)

// RoomPoints harvests plausible (x, y) instance coordinates from the room
// chunks.
//
// The content of every ROOM chunk is walked in 4-byte steps reading
// consecutive little-endian int32 pairs; a pair is kept when both values lie
// in [0, roomCoordLimit). Without the room schema this is guesswork dense
// enough to sketch layout geometry. When more than roomPointCap points
// accumulate, the list is thinned by stride sampling.
func (x *Index) RoomPoints() []image.Point {
	var pts []image.Point
	for _, c := range x.chunks {
		if c.Tag != TagRooms {
			continue
		}
		blob := x.data[c.ContentStart:c.ContentEnd]
		for i := 0; i < len(blob)-8; i += 4 {
			px := int32(binary.LittleEndian.Uint32(blob[i:]))
			py := int32(binary.LittleEndian.Uint32(blob[i+4:]))
			if px >= 0 && px < roomCoordLimit && py >= 0 && py < roomCoordLimit {
				pts = append(pts, image.Point{X: int(px), Y: int(py)})
			}
		}
	}
	if len(pts) > roomPointCap {
		step := max(1, len(pts)/roomPointCap)
		sampled := make([]image.Point, 0, len(pts)/step+1)
		for i := 0; i < len(pts); i += step {
			sampled = append(sampled, pts[i])
		}
		pts = sampled
	}
	return pts
}
