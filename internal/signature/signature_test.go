package signature

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	s := Default()

	if !s.HasPrefix("60:60:1f") {
		t.Error("stock prefix 60:60:1f not found")
	}
	if s.PrefixWidth() != 8 {
		t.Errorf("PrefixWidth() = %d, want 8", s.PrefixWidth())
	}
	if !s.MatchName("DJI-Mavic-3FA2") {
		t.Error("stock keyword DJI did not match a DJI network name")
	}
	if s.MatchName("LivingRoomAP") {
		t.Error("stock keywords matched an unrelated network name")
	}
	if s.MovementThreshold() != DefaultMovementThresholdMeters {
		t.Errorf("MovementThreshold() = %g, want %g", s.MovementThreshold(), DefaultMovementThresholdMeters)
	}
	if s.ReservedCharacters() != DefaultReservedCharacters {
		t.Errorf("ReservedCharacters() = %q, want %q", s.ReservedCharacters(), DefaultReservedCharacters)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "malformed prefix",
			config:  Config{MACPrefixes: []string{"60:60"}},
			wantErr: "malformed MAC prefix",
		},
		{
			name:    "prefix with bad hex",
			config:  Config{MACPrefixes: []string{"6g:60:1f"}},
			wantErr: "malformed MAC prefix",
		},
		{
			name:    "duplicate prefix after normalization",
			config:  Config{MACPrefixes: []string{"60:60:1f", "60:60:1F"}},
			wantErr: "duplicate MAC prefix",
		},
		{
			name:    "empty keyword",
			config:  Config{NameKeywords: []string{"DJI", "  "}},
			wantErr: "empty name keyword",
		},
		{
			name:    "duplicate keyword",
			config:  Config{NameKeywords: []string{"DJI", "DJI"}},
			wantErr: "duplicate name keyword",
		},
		{
			name:    "negative movement threshold",
			config:  Config{MovementThresholdMeters: -1},
			wantErr: "movement threshold",
		},
		{
			name:    "prefix octets out of range",
			config:  Config{OUIOctets: 7},
			wantErr: "prefix octets",
		},
		{
			name:    "non-ASCII reserved characters",
			config:  Config{ReservedCharacters: "{}«"},
			wantErr: "not ASCII",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if err == nil {
				t.Fatal("New() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestKeywordReduction(t *testing.T) {
	s, err := New(Config{
		NameKeywords: []string{"DJI-Mavic", "DJI-Avata", "DJI", "Brinc-Lemur", "Autel-Evo"},
	})
	if err != nil {
		t.Fatalf("New() error: %s", err)
	}

	wantKept := []string{"DJI", "Brinc-Lemur", "Autel-Evo"}
	if got := s.Keywords(); !slices.Equal(got, wantKept) {
		t.Errorf("Keywords() = %v, want %v", got, wantKept)
	}

	wantDropped := []string{"DJI-Mavic", "DJI-Avata"}
	if got := s.DroppedKeywords(); !slices.Equal(got, wantDropped) {
		t.Errorf("DroppedKeywords() = %v, want %v", got, wantDropped)
	}

	// The reduced set must still match everything the dropped keywords
	// matched.
	for _, name := range []string{"DJI-Mavic", "DJI-Avata-2", "Brinc-Lemur", "Autel-Evo-II"} {
		if !s.MatchName(name) {
			t.Errorf("MatchName(%q) = false after reduction, want true", name)
		}
	}
}

func TestMatchNameLiteral(t *testing.T) {
	// Keyword metacharacters must match literally, not as expressions.
	s, err := New(Config{NameKeywords: []string{"UAV (test)"}})
	if err != nil {
		t.Fatalf("New() error: %s", err)
	}

	if !s.MatchName("My UAV (test) unit") {
		t.Error("literal keyword with metacharacters did not match")
	}
	if s.MatchName("UAV test") {
		t.Error("keyword matched as a pattern instead of a literal")
	}
}

func TestMatchNameCaseSensitive(t *testing.T) {
	s := Default()

	if s.MatchName("dji-mavic") {
		t.Error("keyword matching must be case sensitive")
	}
}

func TestPrefixNormalization(t *testing.T) {
	s, err := New(Config{MACPrefixes: []string{"AC:7B:A1"}})
	if err != nil {
		t.Fatalf("New() error: %s", err)
	}

	if !s.HasPrefix("ac:7b:a1") {
		t.Error("upper case configured prefix not matched in lower case")
	}
	if got := s.Prefixes(); !slices.Equal(got, []string{"ac:7b:a1"}) {
		t.Errorf("Prefixes() = %v, want [ac:7b:a1]", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "signatures.yaml")
		data := `macPrefixes:
  - "60:60:1f"
  - "dc:a6:32"
nameKeywords:
  - DJI
  - Parrot
ouiOctets: 3
movementThresholdMeters: 120
`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("writing fixture: %s", err)
		}

		s, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error: %s", err)
		}
		if !s.HasPrefix("dc:a6:32") {
			t.Error("loaded prefix not found")
		}
		if !s.MatchName("Parrot-Anafi") {
			t.Error("loaded keyword did not match")
		}
		if s.MovementThreshold() != 120 {
			t.Errorf("MovementThreshold() = %g, want 120", s.MovementThreshold())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
			t.Error("Load() succeeded on a missing file, want error")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		if err := os.WriteFile(path, []byte("macPrefixes: [\n"), 0o644); err != nil {
			t.Fatalf("writing fixture: %s", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() succeeded on malformed YAML, want error")
		}
	})

	t.Run("invalid sets", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		if err := os.WriteFile(path, []byte("macPrefixes: [\"not-a-prefix\"]\n"), 0o644); err != nil {
			t.Fatalf("writing fixture: %s", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() succeeded on invalid sets, want error")
		}
	})
}
