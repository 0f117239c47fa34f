package formscan

// Chunk tags with a conventional meaning in these archives. The scanner
// itself never interprets tags; only the pipeline's targeted-scan policy and
// the room probe consult them.
const (
	// TagStrings marks the chunk conventionally holding the string table.
	TagStrings = "STRG"

	// TagTextures marks the chunk conventionally holding packed images.
	TagTextures = "TXTR"

	// TagAudio marks the chunk conventionally holding audio blobs.
	TagAudio = "AUDO"

	// TagRooms marks the chunk conventionally holding room layouts.
	TagRooms = "ROOM"
)

// AssetKind identifies what an asset range was recognized as.
type AssetKind uint8

const (
	// KindImage is a PNG byte range.
	KindImage AssetKind = iota

	// KindWAV is a RIFF/WAV byte range.
	KindWAV

	// KindOgg is an Ogg stream byte range.
	KindOgg
)

// String returns the string representation of the kind.
func (k AssetKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindWAV:
		return "wav"
	case KindOgg:
		return "ogg"
	default:
		return "unknown"
	}
}

// Ext returns the file extension for exporting a range of this kind.
func (k AssetKind) Ext() string {
	switch k {
	case KindImage:
		return ".png"
	case KindWAV:
		return ".wav"
	case KindOgg:
		return ".ogg"
	default:
		return ".bin"
	}
}

// Asset is a byte range heuristically identified as one embedded file.
//
// Start and End are absolute offsets into the scanned buffer. Name is a
// best-effort guess, never authoritative: either a harvested string found
// near the range or a positional placeholder. In an index produced by
// [Scan] it is never empty.
type Asset struct {
	Kind  AssetKind
	Start int
	End   int
	Name  string
}

// SpriteGroup collects image assets sharing a sprite naming convention.
//
// Frames are indices into the image asset list in first-seen order. Image
// assets without the convention stay out of every group and remain
// individually reachable.
type SpriteGroup struct {
	Name   string
	Frames []int
}
