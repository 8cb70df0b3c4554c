package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Length is the number of hex characters in a build identity.
const Length = 32

// ID names one build. It is generated fresh per build invocation and never
// persisted as an index; past builds are discovered by directory listing.
type ID string

// New returns a fresh identity from a cryptographically strong source.
// The result is always exactly 32 lowercase hex characters.
func New() (ID, error) {
	buf := make([]byte, Length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate build identity: %w", err)
	}
	return ID(hex.EncodeToString(buf)), nil
}

// Valid reports whether the identity is exactly 32 lowercase hex characters.
func (id ID) Valid() bool {
	if len(id) != Length {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

func (id ID) String() string { return string(id) }
