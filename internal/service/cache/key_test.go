package cache

import (
	"math"
	"testing"
)

func TestKeyIgnoresCasingAndOuterWhitespace(t *testing.T) {
	base := Key("Hello, I need help", "en", "es")
	variants := []string{"hello, i need help", "  HELLO, I NEED HELP\n", "\tHello, I need help "}
	for _, v := range variants {
		if got := Key(v, "en", "es"); got != base {
			t.Fatalf("Key(%q) = %s, want %s", v, got, base)
		}
	}
	if Key("Hello, I need help", "en", "fr") == base {
		t.Fatalf("different target language must change the key")
	}
	if len(base) != 64 {
		t.Fatalf("expected sha256 hex, got %d chars", len(base))
	}
}

func TestSimilarityProperties(t *testing.T) {
	texts := []string{
		"thank you very much",
		"Thank you so much!",
		"I need to open an account",
		"open an account please",
		"",
	}
	for _, a := range texts {
		if got := Similarity(a, a); got != 1 {
			t.Fatalf("Similarity(%q, itself) = %v", a, got)
		}
		for _, b := range texts {
			ab, ba := Similarity(a, b), Similarity(b, a)
			if math.Abs(ab-ba) > 1e-12 {
				t.Fatalf("not symmetric for %q / %q: %v vs %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Fatalf("out of bounds for %q / %q: %v", a, b, ab)
			}
		}
	}
}

func TestSimilarityValues(t *testing.T) {
	if got := Similarity("thank you so much for your help", "thank you so much for your help today"); math.Abs(got-0.875) > 1e-9 {
		t.Fatalf("expected 0.875, got %v", got)
	}
	if got := Similarity("yes", "no"); got != 0 {
		t.Fatalf("expected 0 for disjoint sets, got %v", got)
	}
}
