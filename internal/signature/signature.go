// Package signature defines the drone signature sets used to classify
// wireless sightings: manufacturer MAC address prefixes and device name
// keywords. Sets are loaded from a YAML file or fall back to the stock
// collection, and are compiled once into lookup structures shared by
// every classification call.
package signature

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the corresponding Config field is empty.
const (
	DefaultOUIOctets               = 3
	DefaultReservedCharacters      = `{}|[]"'\<>%`
	DefaultMovementThresholdMeters = 80.0
)

// Stock signature sets, used when no configuration file is supplied.
// Prefixes cover known drone radio vendors; keywords match the network
// names drone models announce.
var (
	defaultMACPrefixes = []string{
		"60:60:1f",
		"90:3a:e6",
		"ac:7b:a1",
		"dc:a6:32",
		"00:1e:c0",
		"18:18:9f",
		"68:ad:2f",
	}

	defaultNameKeywords = []string{
		"DJI",
		"Brinc-Lemur",
		"Autel-Evo",
	}
)

// Config mirrors the on-disk YAML signature file. Zero values select the
// package defaults.
type Config struct {
	// MACPrefixes lists manufacturer address prefixes, colon separated,
	// one group of two hex digits per octet.
	MACPrefixes []string `yaml:"macPrefixes"`

	// NameKeywords lists case-sensitive substrings matched against
	// sanitized device names.
	NameKeywords []string `yaml:"nameKeywords"`

	// OUIOctets is the number of leading address octets a prefix covers.
	OUIOctets int `yaml:"ouiOctets"`

	// ReservedCharacters are stripped from free-text capture fields
	// before classification and display.
	ReservedCharacters string `yaml:"reservedCharacters"`

	// MovementThresholdMeters is the distance between two consecutive
	// fixes of one device above which the device counts as moving.
	MovementThresholdMeters float64 `yaml:"movementThresholdMeters"`
}

// Sets holds compiled signature sets. The zero value is not usable;
// construct with New, Load or Default.
type Sets struct {
	prefixes    map[string]struct{}
	prefixWidth int
	keywords    []string
	dropped     []string
	pattern     *regexp.Regexp
	reserved    string
	threshold   float64
}

// Load reads and compiles a YAML signature file. Any parse or
// validation failure is returned as an error; a partially usable set is
// never produced.
func Load(path string) (*Sets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signature file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing signature file: %w", err)
	}

	s, err := New(config)
	if err != nil {
		return nil, fmt.Errorf("signature file %s: %w", path, err)
	}
	return s, nil
}

// Default returns the compiled stock signature sets.
func Default() *Sets {
	s, err := New(Config{})
	if err != nil {
		panic(fmt.Sprintf("signature: compiling stock sets: %s", err))
	}
	return s
}

// New validates and compiles a signature configuration.
//
// MAC prefixes are normalized to lower case and must all be well formed
// and distinct. Keywords must be non-empty and distinct; a keyword that
// contains another configured keyword as a substring is redundant (the
// broader keyword already matches every name the narrower one would)
// and is dropped from the compiled set. Dropped keywords are reported
// by DroppedKeywords so callers can log the reduction.
func New(config Config) (*Sets, error) {
	s := &Sets{
		reserved:  config.ReservedCharacters,
		threshold: config.MovementThresholdMeters,
	}

	if s.reserved == "" {
		s.reserved = DefaultReservedCharacters
	}
	for _, r := range s.reserved {
		if r >= utf8.RuneSelf {
			return nil, fmt.Errorf("reserved character %q is not ASCII", r)
		}
	}

	if s.threshold == 0 {
		s.threshold = DefaultMovementThresholdMeters
	}
	if s.threshold < 0 {
		return nil, fmt.Errorf("movement threshold must not be negative, got %g", s.threshold)
	}

	octets := config.OUIOctets
	if octets == 0 {
		octets = DefaultOUIOctets
	}
	if octets < 1 || octets > 6 {
		return nil, fmt.Errorf("prefix octets must be between 1 and 6, got %d", octets)
	}
	s.prefixWidth = octets*3 - 1

	prefixes := config.MACPrefixes
	if prefixes == nil {
		prefixes = defaultMACPrefixes
	}
	s.prefixes = make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		normalized := strings.ToLower(strings.TrimSpace(p))
		if !validPrefix(normalized, octets) {
			return nil, fmt.Errorf("malformed MAC prefix %q: want %d colon-separated hex octets", p, octets)
		}
		if _, ok := s.prefixes[normalized]; ok {
			return nil, fmt.Errorf("duplicate MAC prefix %q", normalized)
		}
		s.prefixes[normalized] = struct{}{}
	}

	keywords := config.NameKeywords
	if keywords == nil {
		keywords = defaultNameKeywords
	}
	if err := s.compileKeywords(keywords); err != nil {
		return nil, err
	}
	return s, nil
}

// compileKeywords validates the keyword list, removes subsumed entries
// and builds the single alternation expression used for name matching.
func (s *Sets) compileKeywords(keywords []string) error {
	trimmed := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return fmt.Errorf("empty name keyword")
		}
		if slices.Contains(trimmed, kw) {
			return fmt.Errorf("duplicate name keyword %q", kw)
		}
		trimmed = append(trimmed, kw)
	}

	// A keyword containing a shorter configured keyword can never match
	// a name the shorter one misses, so only the broadest survive.
	for _, kw := range trimmed {
		subsumed := false
		for _, other := range trimmed {
			if other != kw && strings.Contains(kw, other) {
				subsumed = true
				break
			}
		}
		if subsumed {
			s.dropped = append(s.dropped, kw)
		} else {
			s.keywords = append(s.keywords, kw)
		}
	}

	if len(s.keywords) == 0 {
		return nil
	}

	quoted := make([]string, len(s.keywords))
	for i, kw := range s.keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}

	pattern, err := regexp.Compile(strings.Join(quoted, "|"))
	if err != nil {
		return fmt.Errorf("compiling keyword pattern: %w", err)
	}
	s.pattern = pattern
	return nil
}

func validPrefix(p string, octets int) bool {
	parts := strings.Split(p, ":")
	if len(parts) != octets {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		for i := 0; i < len(part); i++ {
			c := part[i]
			if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
				return false
			}
		}
	}
	return true
}

// HasPrefix reports whether the given normalized (lower case, colon
// separated) prefix is in the set.
func (s *Sets) HasPrefix(prefix string) bool {
	_, ok := s.prefixes[prefix]
	return ok
}

// PrefixWidth returns the character width of a prefix, separators
// included. Callers slice this many leading characters off a MAC
// address before calling HasPrefix.
func (s *Sets) PrefixWidth() int { return s.prefixWidth }

// MatchName reports whether the sanitized device name contains any
// configured keyword. Matching is case sensitive.
func (s *Sets) MatchName(name string) bool {
	if name == "" || s.pattern == nil {
		return false
	}
	return s.pattern.MatchString(name)
}

// Keywords returns the compiled keyword set in configuration order.
func (s *Sets) Keywords() []string { return slices.Clone(s.keywords) }

// DroppedKeywords returns configured keywords removed as redundant.
func (s *Sets) DroppedKeywords() []string { return slices.Clone(s.dropped) }

// Prefixes returns the normalized MAC prefix set, sorted.
func (s *Sets) Prefixes() []string {
	out := make([]string, 0, len(s.prefixes))
	for p := range s.prefixes {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ReservedCharacters returns the characters stripped from free-text
// capture fields.
func (s *Sets) ReservedCharacters() string { return s.reserved }

// MovementThreshold returns the snooper movement threshold in meters.
func (s *Sets) MovementThreshold() float64 { return s.threshold }
