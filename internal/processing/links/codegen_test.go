package links

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"
)

var urlSafeAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateCode_Deterministic(t *testing.T) {
	a := GenerateCode("https://example.com/a")
	b := GenerateCode("https://example.com/a")
	if a != b {
		t.Errorf("same url produced %q and %q", a, b)
	}
	if c := GenerateCode("https://example.com/b"); c == a {
		t.Errorf("different urls produced the same code %q", c)
	}
}

func TestGenerateCode_MatchesDigestPrefix(t *testing.T) {
	url := "https://example.com/some/long/path?q=1"
	sum := sha256.Sum256([]byte(url))
	want := base64.URLEncoding.EncodeToString(sum[:])[:10]

	if got := GenerateCode(url); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGenerateCode_Alphabet(t *testing.T) {
	inputs := []string{"", "https://example.com", "https://例え.jp/パス", "http://a.b/c?d=e&f=g#h"}
	for _, in := range inputs {
		code := GenerateCode(in)
		if len(code) != DefaultCodeLength {
			t.Errorf("%q: got length %d, want %d", in, len(code), DefaultCodeLength)
		}
		if !urlSafeAlphabet.MatchString(code) {
			t.Errorf("%q: code %q has characters outside the url-safe alphabet", in, code)
		}
	}
}

func TestNewHashCodeGenerator_Length(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"default", DefaultCodeLength, DefaultCodeLength},
		{"minimum", MinCodeLength, MinCodeLength},
		{"maximum", MaxCodeLength, MaxCodeLength},
		{"too short falls back", 2, DefaultCodeLength},
		{"too long falls back", 100, DefaultCodeLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := NewHashCodeGenerator(tt.length).Generate("https://example.com")
			if len(code) != tt.want {
				t.Errorf("got length %d, want %d", len(code), tt.want)
			}
		})
	}
}
