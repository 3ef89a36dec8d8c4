package similarity

import (
	"math"
	"testing"
)

func TestRatio_Identical(t *testing.T) {
	for _, s := range []string{"a", "asthma care", "Intro to Asthma Care"} {
		if got := Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestRatio_EmptyInputs(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"", "anything"},
		{"anything", ""},
		{"   ", "anything"}, // whitespace-only trims to empty
	}
	for _, c := range cases {
		if got := Ratio(c[0], c[1]); got != 0.0 {
			t.Errorf("Ratio(%q, %q) = %v, want 0.0", c[0], c[1], got)
		}
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"cardiology", "cardiologie"},
		{"pediatric surgery", "surgery pediatric"},
		{"asthma", "athsma"},
		{"short", "a considerably longer string"},
	}
	for _, p := range pairs {
		ab := Ratio(p[0], p[1])
		ba := Ratio(p[1], p[0])
		if math.Abs(ab-ba) > 1e-12 {
			t.Errorf("Ratio(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestRatio_CaseFolded(t *testing.T) {
	if got := Ratio("Asthma Care", "asthma care"); got != 1.0 {
		t.Errorf("case-folded identical strings: got %v, want 1.0", got)
	}
}

func TestRatio_TypoScoresHigh(t *testing.T) {
	// One transposition in a ten-letter word should stay well above the
	// 0.85 cross-source match threshold.
	got := Ratio("cardiology", "cardiolgoy")
	if got <= 0.85 {
		t.Errorf("Ratio(cardiology, cardiolgoy) = %v, want > 0.85", got)
	}
	if got >= 1.0 {
		t.Errorf("typo pairs must score below 1.0, got %v", got)
	}
}

func TestRatio_DivergentStringsScoreLow(t *testing.T) {
	got := Ratio("quantum chromodynamics", "asthma care basics")
	if got > 0.5 {
		t.Errorf("unrelated strings scored %v, want <= 0.5", got)
	}
}

func TestRatio_KnownValue(t *testing.T) {
	// "abcd" vs "bcde": matching block "bcd" (3 runes), 2*3/8 = 0.75.
	if got := Ratio("abcd", "bcde"); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("Ratio(abcd, bcde) = %v, want 0.75", got)
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  Intro to Asthma Care  ", "intro to asthma care"},
		{"Intro to Asthma Care - StayCurrentMD", "intro to asthma care"},
		{"Intro to Asthma Care | StayCurrentMD", "intro to asthma care"},
		{"ALL CAPS TITLE", "all caps title"},
	}
	for _, c := range cases {
		if got := NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeTitle_MakesCrossSourceTitlesEqual(t *testing.T) {
	a := NormalizeTitle("Intro to Asthma Care")
	b := NormalizeTitle("Intro to Asthma Care - StayCurrentMD")
	if a != b {
		t.Errorf("normalized titles differ: %q vs %q", a, b)
	}
	if Ratio(a, b) != 1.0 {
		t.Errorf("Ratio of normalized equal titles = %v, want 1.0", Ratio(a, b))
	}
}
