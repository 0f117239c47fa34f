package formscan

import (
	"bytes"
	"encoding/binary"
)

// Embedded-file signatures recognized by the range finders.
var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	pngEndMarker = []byte("IEND")
	riffMarker   = []byte("RIFF")
	oggMarker    = []byte("OggS")
)

// FindPNGRanges locates embedded PNG files in data within [start, end).
//
// Each range runs from a PNG signature through the next IEND marker plus its
// 4-byte checksum, clamped to the span end. If a signature has no IEND
// before the span ends, scanning of the span stops entirely: an unterminated
// image invalidates further search. Conservative and deliberately lossy.
func FindPNGRanges(data []byte, start, end int) []Asset {
	start = max(start, 0)
	end = min(end, len(data))
	if start >= end {
		return nil
	}

	seg := data[start:end]
	var out []Asset
	for i := 0; ; {
		p := bytes.Index(seg[i:], pngSignature)
		if p < 0 {
			break
		}
		p += i
		iend := bytes.Index(seg[p:], pngEndMarker)
		if iend < 0 {
			break
		}
		iend += p
		out = append(out, Asset{
			Kind:  KindImage,
			Start: start + p,
			End:   min(start+iend+8, end),
		})
		// The marker can sit closer than 8 bytes to the span end.
		i = min(iend+8, len(seg))
	}
	return out
}

// FindRIFFRanges locates RIFF (WAV) containers in data within [start, end).
//
// The u32 size field at signature offset 4 declares the byte count after the
// 8-byte header. A declared size overrunning the span produces one final
// range clamped to the span end. Ranges never overlap: the cursor resumes
// after each consumed container.
func FindRIFFRanges(data []byte, start, end int) []Asset {
	start = max(start, 0)
	end = min(end, len(data))
	if start >= end {
		return nil
	}

	seg := data[start:end]
	var out []Asset
	for i := 0; ; {
		p := bytes.Index(seg[i:], riffMarker)
		if p < 0 {
			break
		}
		p += i
		if p+8 > len(seg) {
			break
		}
		size := int(binary.LittleEndian.Uint32(seg[p+4:]))
		if size <= len(seg)-p-8 {
			out = append(out, Asset{Kind: KindWAV, Start: start + p, End: start + p + 8 + size})
			i = p + 8 + size
			continue
		}
		out = append(out, Asset{Kind: KindWAV, Start: start + p, End: end})
		break
	}
	return out
}

// FindOggRanges locates Ogg streams in data within [start, end).
//
// Ogg pages carry no total length, so each capture pattern starts a range
// that extends to the next capture pattern, or to the span end when there is
// none. A distance-to-next-marker heuristic, not a frame-accurate boundary.
func FindOggRanges(data []byte, start, end int) []Asset {
	start = max(start, 0)
	end = min(end, len(data))
	if start >= end {
		return nil
	}

	seg := data[start:end]
	var out []Asset
	for i := 0; ; {
		p := bytes.Index(seg[i:], oggMarker)
		if p < 0 {
			break
		}
		p += i
		next := bytes.Index(seg[p+4:], oggMarker)
		if next < 0 {
			out = append(out, Asset{Kind: KindOgg, Start: start + p, End: end})
			break
		}
		next += p + 4
		out = append(out, Asset{Kind: KindOgg, Start: start + p, End: start + next})
		i = next
	}
	return out
}

// FindAudioRanges locates RIFF and Ogg ranges in data within [start, end).
// RIFF results precede Ogg results; the two lists are not interleaved by
// offset.
func FindAudioRanges(data []byte, start, end int) []Asset {
	return append(FindRIFFRanges(data, start, end), FindOggRanges(data, start, end)...)
}
