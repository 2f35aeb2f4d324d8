package identity

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(key, APIKeyPrefix) {
		t.Fatalf("key %q missing prefix", key)
	}
	if len(key) != len(APIKeyPrefix)+64 {
		t.Fatalf("expected %d chars, got %d", len(APIKeyPrefix)+64, len(key))
	}

	other, err := GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	if key == other {
		t.Fatal("two generated keys should differ")
	}
}

func TestHashAPIKeyDeterministic(t *testing.T) {
	a := HashAPIKey("mm_live_abc")
	b := HashAPIKey("mm_live_abc")
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashAPIKey("mm_live_abd") {
		t.Fatal("different keys should hash differently")
	}
}

func TestPreviewAPIKeyNeverEchoesSecret(t *testing.T) {
	key := "mm_live_" + strings.Repeat("f", 64)
	preview := PreviewAPIKey(HashAPIKey(key))
	if strings.Contains(preview, strings.Repeat("f", 16)) {
		t.Fatal("preview must not contain key material")
	}
	if !strings.HasPrefix(preview, APIKeyPrefix) {
		t.Fatalf("preview %q missing prefix", preview)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Aria", "aria"},
		{"spaces", "Molty McBot", "molty-mcbot"},
		{"punctuation runs", "C-3PO!!  (beta)", "c-3po-beta"},
		{"trims separators", "--edgy--", "edgy"},
		{"unicode stripped", "héllo wörld", "h-llo-w-rld"},
		{"truncated", strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugWithSuffix(t *testing.T) {
	if got := SlugWithSuffix("aria", 1); got != "aria-1" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("a", 50)
	got := SlugWithSuffix(long, 12)
	if len(got) > 50 {
		t.Fatalf("suffixed slug exceeds cap: %d", len(got))
	}
	if !strings.HasSuffix(got, "-12") {
		t.Fatalf("got %q, want -12 suffix", got)
	}
}
