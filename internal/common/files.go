package common

import (
	"crypto/sha256"
	"fmt"
)

// Sha256OfBytes fingerprints an in-memory buffer. Inputs are read fully
// before decoding, so the buffer form is the only one callers need.
func Sha256OfBytes(buf []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(buf))
}
