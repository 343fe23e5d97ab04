package pixelsift

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is the lowercase hex SHA-256 of an image's raw samples.
type Digest string

// DigestOf hashes the samples of img in row-major, channel-last order.
// The shape is not part of the hash.
func DigestOf(img *Image) Digest {
	sum := sha256.Sum256(img.Pix)
	return Digest(hex.EncodeToString(sum[:]))
}

// Short returns the first 12 hex digits, for log lines and captions.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// Equal reports whether a and b have the same digest.
//
// Only the sample bytes are compared: two images holding identical bytes
// in different shapes are equal. Callers that care about shape must check
// it themselves.
func Equal(a, b *Image) bool {
	return DigestOf(a) == DigestOf(b)
}
