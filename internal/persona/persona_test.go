package persona

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEncodeDecodeTraitsPreservesOrder(t *testing.T) {
	in := []string{"dry", "meticulous", "secretly romantic"}
	raw, err := EncodeTraits(in)
	if err != nil {
		t.Fatal(err)
	}
	got := DecodeTraits(raw)
	if len(got) != len(in) {
		t.Fatalf("expected %d traits, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("trait %d: got %q, want %q", i, got[i], in[i])
		}
	}
}

func TestDecodeTraitsMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"a":1}`, `"scalar"`} {
		if got := DecodeTraits(raw); len(got) != 0 {
			t.Errorf("DecodeTraits(%q) = %v, want empty", raw, got)
		}
	}
}

func TestCleanTraitsCapsAndFilters(t *testing.T) {
	in := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		in = append(in, "trait")
	}
	if got := CleanTraits(in); len(got) != MaxTraits {
		t.Fatalf("expected cap at %d, got %d", MaxTraits, len(got))
	}
	got := CleanTraits([]string{"  spaced  ", "", "ok"})
	if len(got) != 2 || got[0] != "spaced" || got[1] != "ok" {
		t.Fatalf("got %v", got)
	}
}

func TestNormalizeTextTruncatesByRune(t *testing.T) {
	// 3-byte runes: a byte-based cut would land mid-sequence.
	in := strings.Repeat("日", 20)
	got := NormalizeText(in, 10)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Fatalf("expected 10 runes, got %d", n)
	}

	// A string under the rune limit but over it in bytes stays intact.
	short := strings.Repeat("日", 8)
	if got := NormalizeText(short, 10); got != short {
		t.Fatalf("got %q, want %q", got, short)
	}
}

func TestSanitizeAnswers(t *testing.T) {
	long := strings.Repeat("x", 400)
	got := SanitizeAnswers([]string{" yes ", "", long})
	if len(got) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(got))
	}
	if got[0] != "yes" {
		t.Errorf("got %q", got[0])
	}
	if len(got[1]) != 280 {
		t.Errorf("expected answer truncated to 280, got %d", len(got[1]))
	}
}
