package formscan

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// HarvestStrings extracts printable NUL-terminated strings from data within
// [start, end), deduplicated with first-seen order preserved.
//
// The span splits on NUL bytes; a trailing run with no terminator is
// dropped. Each run is decoded as strict UTF-8, falling back to Latin-1 for
// runs that are not valid UTF-8, and kept only when it contains at least one
// letter or digit. Spans outside the buffer are clamped.
func HarvestStrings(data []byte, start, end int) []string {
	start = max(start, 0)
	end = min(end, len(data))
	if start >= end {
		return nil
	}

	seg := data[start:end]
	latin1 := charmap.ISO8859_1.NewDecoder()

	var out []string
	seen := make(map[string]struct{})
	for off := 0; ; {
		n := bytes.IndexByte(seg[off:], 0)
		if n < 0 {
			break
		}
		s, ok := decodeRun(seg[off:off+n], latin1)
		if ok && hasAlnum(s) {
			if _, dup := seen[s]; !dup {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
		off += n + 1
	}
	return out
}

// decodeRun decodes a candidate byte run: strict UTF-8 first, then Latin-1,
// which maps every byte and cannot fail in practice.
func decodeRun(run []byte, latin1 *encoding.Decoder) (string, bool) {
	if utf8.Valid(run) {
		return string(run), true
	}
	s, err := latin1.Bytes(run)
	if err != nil {
		return "", false
	}
	return string(s), true
}

// hasAlnum reports whether s contains at least one letter or digit. Runs of
// pure punctuation or whitespace are noise in these archives.
func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
