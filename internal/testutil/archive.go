// Package testutil builds synthetic chunked archives for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// Chunk wraps payload in a 4-byte tag and little-endian size header.
func Chunk(tag string, payload []byte) []byte {
	if len(tag) != 4 {
		panic("testutil: tag must be 4 bytes")
	}
	out := make([]byte, 0, 8+len(payload))
	out = append(out, tag...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

// Form wraps already-encoded chunks in a FORM root at offset zero.
func Form(chunks ...[]byte) []byte {
	content := bytes.Join(chunks, nil)
	out := make([]byte, 0, 8+len(content))
	out = append(out, "FORM"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(content)))
	return append(out, content...)
}

// Strings encodes values as NUL-terminated runs for a STRG payload.
func Strings(values ...string) []byte {
	var b bytes.Buffer
	for _, v := range values {
		b.WriteString(v)
		b.WriteByte(0)
	}
	return b.Bytes()
}

// PNG encodes a w by h solid-color image and returns the byte stream,
// signature through IEND.
func PNG(tb testing.TB, w, h int, c color.Color) []byte {
	tb.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WAV builds a RIFF blob whose declared size covers payload exactly.
// Realistic payloads start with "WAVE"; the scanner only reads the header.
func WAV(payload []byte) []byte {
	out := make([]byte, 0, 8+len(payload))
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	return append(out, payload...)
}

// Ogg prefixes payload with the OggS capture pattern.
func Ogg(payload []byte) []byte {
	out := make([]byte, 0, 4+len(payload))
	out = append(out, "OggS"...)
	return append(out, payload...)
}
