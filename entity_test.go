package xsax

import "testing"

func TestEntityResolver(t *testing.T) {
	loose := newEntityResolver(false)
	strict := newEntityResolver(true)

	cases := []struct {
		name   string
		in     string
		want   string
		ok     bool
		strict bool
	}{
		{"predefined", "amp", "&", true, true},
		{"predefined-lt", "lt", "<", true, true},
		{"html-only", "nbsp", " ", true, false},
		{"case-fallback", "AMP", "&", true, true},
		{"decimal", "#65", "A", true, true},
		{"hex-lower", "#x41", "A", true, true},
		{"hex-upper", "#X41", "A", true, true},
		{"leading-zero", "#065", "&#065;", false, true},
		{"hex-garbage", "#xZZ", "&#xZZ;", false, true},
		{"empty-numeric", "#", "&#;", false, true},
		{"unknown", "xyz", "&xyz;", false, true},
	}
	for _, c := range cases {
		r := loose
		if c.strict {
			r = strict
		}
		got, ok := r.resolve(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("%s: resolve(%q) = %q,%v want %q,%v", c.name, c.in, got, ok, c.want, c.ok)
		}
	}

	// The strict table must not know HTML-only names.
	if _, ok := strict.resolve("nbsp"); ok {
		t.Fatal("strict table resolved nbsp")
	}
}

func TestNumericRoundTripRejectsTrailingGarbage(t *testing.T) {
	if got, ok := resolveNumeric("65x"); ok {
		t.Fatalf("resolveNumeric(65x) = %q, want reject", got)
	}
}
