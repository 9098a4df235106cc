package links

import (
	"crypto/sha256"
	"encoding/base64"
)

const (
	DefaultCodeLength = 10
	MinCodeLength     = 6
	// MaxCodeLength is the unpadded length of a base64-encoded SHA-256 digest.
	MaxCodeLength = 43
)

// HashCodeGenerator derives a short code from the SHA-256 digest of the URL,
// encoded with the URL-safe base64 alphabet and truncated. The same URL
// always yields the same code.
type HashCodeGenerator struct {
	length int
}

func NewHashCodeGenerator(length int) *HashCodeGenerator {
	if length < MinCodeLength || length > MaxCodeLength {
		length = DefaultCodeLength
	}
	return &HashCodeGenerator{length: length}
}

func (g *HashCodeGenerator) Generate(url string) string {
	sum := sha256.Sum256([]byte(url))
	encoded := base64.URLEncoding.EncodeToString(sum[:])
	return encoded[:g.length]
}

// GenerateCode is the default 10-character derivation.
func GenerateCode(url string) string {
	return NewHashCodeGenerator(DefaultCodeLength).Generate(url)
}
