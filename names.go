package formscan

import "bytes"

// nameWindow is the maximum distance in bytes between a string's first
// occurrence and a range start for the string to be accepted as the range's
// name.
const nameWindow = 4096

// AssociateName guesses a name for the byte offset from the harvested
// string list.
//
// Strings are tried in list order; for each, only its first raw-byte
// occurrence in the whole buffer is considered. The first string whose
// occurrence lies within nameWindow bytes of offset wins, even when a later
// string sits closer, so a name can be misattributed when several candidates
// fall inside the window. The second return is false when no string
// qualifies, and callers synthesize a positional placeholder instead.
func AssociateName(data []byte, offset int, names []string) (string, bool) {
	for _, s := range names {
		loc := bytes.Index(data, []byte(s))
		if loc < 0 {
			continue
		}
		d := loc - offset
		if d < 0 {
			d = -d
		}
		if d < nameWindow {
			return s, true
		}
	}
	return "", false
}
