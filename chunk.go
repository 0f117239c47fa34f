package formscan

import "encoding/binary"

// Chunk is a tagged, length-prefixed sub-region of the archive: a 4-byte
// uppercase ASCII tag, a little-endian u32 size, and that many content
// bytes.
//
// Offsets are absolute. ContentStart is always HeaderOffset+8 and ContentEnd
// is ContentStart+Size. Chunks nest by containment, but scans report them as
// a flat pre-order sequence.
type Chunk struct {
	Tag          string
	HeaderOffset int
	Size         int
	ContentStart int
	ContentEnd   int
}

// ScanChunks discovers chunks in data within [start, end).
//
// The scan advances byte-by-byte rather than assuming tag alignment: at each
// offset the 4 bytes are tested as an uppercase tag and the following u32
// as a size. A candidate is accepted only when the size is nonzero and the
// content span fits entirely inside [start, end); accepted chunks are
// emitted, their content is scanned recursively (children follow their
// parent), and the cursor resumes past the content. Anything else advances
// the cursor by a single byte, so garbage that happens to look like a tag
// with an oversized length is treated as ordinary bytes, never an error.
//
// The result is deterministic for a given buffer and span. Spans outside
// the buffer are clamped.
func ScanChunks(data []byte, start, end int) []Chunk {
	start = max(start, 0)
	end = min(end, len(data))
	return scanChunks(data, start, end)
}

func scanChunks(data []byte, start, end int) []Chunk {
	var out []Chunk
	for i := start; i < end-8; {
		if !upperTag(data[i : i+4]) {
			i++
			continue
		}
		size := int(binary.LittleEndian.Uint32(data[i+4:]))
		if size == 0 || size > end-i-8 {
			i++
			continue
		}
		c := Chunk{
			Tag:          string(data[i : i+4]),
			HeaderOffset: i,
			Size:         size,
			ContentStart: i + 8,
			ContentEnd:   i + 8 + size,
		}
		out = append(out, c)
		out = append(out, scanChunks(data, c.ContentStart, c.ContentEnd)...)
		i = c.ContentEnd
	}
	return out
}

// upperTag reports whether b holds 4 uppercase ASCII letters.
func upperTag(b []byte) bool {
	for _, c := range b {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
