package detection

import (
	"strings"

	"github.com/roman-kulish/wireless-surveillance/internal/signature"
)

// Classifier flags drone devices using two independent signature tests:
// a manufacturer prefix cut from the MAC address, and a keyword search
// over the sanitized device name. Either match is sufficient.
type Classifier struct {
	sets *signature.Sets
}

// NewClassifier returns a classifier over the given signature sets.
func NewClassifier(sets *signature.Sets) *Classifier {
	return &Classifier{sets: sets}
}

// Matches reports whether a sighting with the given MAC address and
// sanitized name belongs to a known drone. The name test runs first
// and short-circuits the prefix test.
//
// Matches never fails: a MAC address too short to carry a full
// manufacturer prefix simply yields no prefix match, and an empty name
// yields no keyword match.
func (c *Classifier) Matches(mac, name string) bool {
	if c.sets.MatchName(name) {
		return true
	}

	width := c.sets.PrefixWidth()
	if len(mac) < width {
		return false
	}
	return c.sets.HasPrefix(strings.ToLower(mac[:width]))
}
