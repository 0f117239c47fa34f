package formscan

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// scriptWindow is the number of bytes shown from a script name's first
// occurrence onward.
const scriptWindow = 8192

// ScriptPreview returns decoded text near the first occurrence of name in
// the buffer.
//
// Script bodies are not parsed; the window starting at the name's raw bytes
// is the closest schema-free approximation. The window is decoded like a
// harvested string: strict UTF-8 when valid, Latin-1 otherwise. The second
// return is false when name does not occur in the buffer.
func (x *Index) ScriptPreview(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	p := bytes.Index(x.data, []byte(name))
	if p < 0 {
		return "", false
	}
	sample := x.data[p:min(p+scriptWindow, len(x.data))]
	if utf8.Valid(sample) {
		return string(sample), true
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(sample)
	if err != nil {
		return "", false
	}
	return string(s), true
}
