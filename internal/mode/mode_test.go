package mode

import (
	"errors"
	"testing"
)

// --- catalog integrity ---

func TestModeCount(t *testing.T) {
	if got := len(All()); got != 4 {
		t.Errorf("Expected 4 modes, got %d", got)
	}
}

func TestCatalogIDConsistency(t *testing.T) {
	for _, m := range All() {
		info, ok := Lookup(m)
		if !ok {
			t.Fatalf("Mode %q missing from catalog", m)
		}
		if info.ID != m {
			t.Errorf("Catalog key %q != Info.ID %q", m, info.ID)
		}
		if info.Label == "" || info.Description == "" {
			t.Errorf("Mode %q has empty label or description", m)
		}
	}
}

func TestGradientsAndAccentsParse(t *testing.T) {
	for _, m := range All() {
		info, _ := Lookup(m)
		for _, hex := range []string{info.Gradient.From, info.Gradient.To, info.Accent} {
			if _, err := ParseHex(hex); err != nil {
				t.Errorf("Mode %q colour %q does not parse: %v", m, hex, err)
			}
		}
	}
}

// --- ring ---

func TestRingVisitsEveryModeOnce(t *testing.T) {
	seen := map[Mode]bool{}
	m := Focus
	for range All() {
		if seen[m] {
			t.Fatalf("Mode %q visited twice before ring closed", m)
		}
		seen[m] = true
		m = Next(m)
	}
	if m != Focus {
		t.Errorf("Ring did not close: ended at %q", m)
	}
}

func TestPrevInvertsNext(t *testing.T) {
	for _, m := range All() {
		if got := Prev(Next(m)); got != m {
			t.Errorf("Prev(Next(%q)) = %q", m, got)
		}
	}
}

func TestNextUnknownFallsBackToFocus(t *testing.T) {
	if got := Next("polka"); got != Focus {
		t.Errorf("Next(unknown) = %q, want focus", got)
	}
}

// --- Parse ---

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"focus", Focus, false},
		{"meditate", Meditate, false},
		{" sleep ", Sleep, false},
		{"Focus", "", true}, // case sensitive
		{"", "", true},
		{"party", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("Parse(%q) err = %v, want ErrUnknownMode", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Parse(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNamesMatchAll(t *testing.T) {
	names := Names()
	for i, m := range All() {
		if names[i] != string(m) {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], m)
		}
	}
}

func TestParseHexRejectsGarbage(t *testing.T) {
	for _, s := range []string{"#12345", "#GGGGGG", ""} {
		if _, err := ParseHex(s); err == nil {
			t.Errorf("ParseHex(%q) succeeded, want error", s)
		}
	}
	c, err := ParseHex("#60A5FA")
	if err != nil {
		t.Fatal(err)
	}
	if c.R != 0x60 || c.G != 0xA5 || c.B != 0xFA || c.A != 0xff {
		t.Errorf("ParseHex(#60A5FA) = %+v", c)
	}
}

// --- TrackTitle ---

func TestTrackTitleDeterministic(t *testing.T) {
	a := TrackTitle(Sleep, 1717171717171)
	b := TrackTitle(Sleep, 1717171717171)
	if a != b {
		t.Errorf("TrackTitle not deterministic: %q != %q", a, b)
	}
	if a == "" {
		t.Error("TrackTitle returned empty for known mode")
	}
}

func TestTrackTitleUnknownMode(t *testing.T) {
	if got := TrackTitle("polka", 42); got != "polka session" {
		t.Errorf("TrackTitle for unknown mode = %q, want 'polka session'", got)
	}
}

func TestAllModesHaveVocabulary(t *testing.T) {
	for _, m := range All() {
		if len(modeAdjectives[m]) == 0 || len(modeNouns[m]) == 0 {
			t.Errorf("Mode %q has no title vocabulary", m)
		}
	}
}
