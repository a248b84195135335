package detection

import "strings"

// Sanitizer removes a configured set of reserved characters from
// free-text capture fields. Capture names come from the airwaves and
// may carry markup or quoting characters that would corrupt generated
// reports, so every free-text field is cleaned exactly once, on
// extraction.
//
// The reserved set is ASCII by contract (enforced when signature sets
// are compiled), which allows byte-wise scanning: no byte of a
// multi-byte UTF-8 sequence falls in the ASCII range, so multi-byte
// characters pass through untouched.
type Sanitizer struct {
	drop [128]bool
}

// NewSanitizer builds a sanitizer that strips every character in
// reserved. Characters outside the ASCII range are ignored.
func NewSanitizer(reserved string) *Sanitizer {
	s := &Sanitizer{}
	for i := 0; i < len(reserved); i++ {
		if c := reserved[i]; c < 128 {
			s.drop[c] = true
		}
	}
	return s
}

// Clean returns text with every reserved character removed. Cleaning
// is idempotent and returns the input unchanged, without allocating,
// when nothing needs stripping.
func (s *Sanitizer) Clean(text string) string {
	i := 0
	for ; i < len(text); i++ {
		if c := text[i]; c < 128 && s.drop[c] {
			break
		}
	}
	if i == len(text) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) - 1)
	b.WriteString(text[:i])
	for ; i < len(text); i++ {
		if c := text[i]; c < 128 && s.drop[c] {
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}
