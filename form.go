package formscan

import (
	"bytes"
	"encoding/binary"
)

var (
	// formSignature opens a well-formed archive: "FORM" followed by a
	// little-endian u32 size of the root content.
	formSignature = []byte("FORM")

	// gen8Anchor is a metadata chunk present in virtually all of these
	// archives, used to re-locate the root when the buffer does not start
	// with the signature.
	gen8Anchor = []byte("GEN8")
)

// formBackWindow bounds the backward search from the anchor to the signature.
const formBackWindow = 64

// FormBounds describes the archive's root span.
//
// HeaderOffset is the offset of the signature, or -1 when no root could be
// located and the bounds degrade to the whole buffer. ContentStart and
// ContentEnd delimit the span all further scanning operates on.
type FormBounds struct {
	HeaderOffset int
	ContentStart int
	ContentEnd   int
}

// Located reports whether the root was found by signature rather than by the
// whole-buffer fallback.
func (b FormBounds) Located() bool {
	return b.HeaderOffset >= 0
}

// LocateForm finds the archive's root span.
//
// It tries, in order: the literal signature at offset zero, a backward
// search within formBackWindow bytes of the first GEN8 anchor, and finally a
// whole-buffer fallback. LocateForm never fails; callers that need to
// distinguish the fallback check [FormBounds.Located].
func LocateForm(data []byte) FormBounds {
	if size := formSizeAt(data, 0); size > 0 {
		return FormBounds{HeaderOffset: 0, ContentStart: 8, ContentEnd: 8 + size}
	}
	if anchor := bytes.Index(data, gen8Anchor); anchor >= 0 {
		back := max(0, anchor-formBackWindow)
		if rel := bytes.Index(data[back:anchor], formSignature); rel >= 0 {
			off := back + rel
			if size := formSizeAt(data, off); size > 0 {
				return FormBounds{HeaderOffset: off, ContentStart: off + 8, ContentEnd: off + 8 + size}
			}
		}
	}
	return FormBounds{HeaderOffset: -1, ContentStart: 0, ContentEnd: len(data)}
}

// formSizeAt returns the declared content size when data carries the
// signature at off with a believable size field, and zero otherwise.
func formSizeAt(data []byte, off int) int {
	if off < 0 || off+8 > len(data) || !bytes.HasPrefix(data[off:], formSignature) {
		return 0
	}
	size := int(binary.LittleEndian.Uint32(data[off+4:]))
	if size == 0 || size > len(data)-off-8 {
		return 0
	}
	return size
}
