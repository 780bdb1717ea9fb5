/*
Package randx provides functions for generating cryptographically secure random numbers and unique identifiers.

It generates UUID v4 user and message IDs, broker client IDs (user ID plus a random Base62 suffix,
so two tabs of the same user never collide on the broker), and Base62 session handles for the UI bridge.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ClientSuffixLength is the number of random Base62 characters appended to a client ID.
	ClientSuffixLength = 6

	// SessionHandleLength is the fixed length of a bridge session handle.
	SessionHandleLength = 12
)

// base62 returns a random Base62 string of the given length using crypto/rand.
func base62(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// UserID generates the stable identifier of a local user. It is created once per session.
func UserID() string {
	return uuid.New().String()
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// ClientID derives a broker client identifier from the user ID plus a random suffix.
func ClientID(userID string) (string, error) {
	suffix, err := base62(ClientSuffixLength)
	if err != nil {
		return "", fmt.Errorf("client id suffix: %w", err)
	}

	return userID + "-" + suffix, nil
}

// SessionHandle generates the opaque handle a browser uses to address its bridge session.
func SessionHandle() (string, error) {
	return base62(SessionHandleLength)
}

// IsValidSessionHandle checks if the given string is a valid session handle.
// Validity criteria include: length equals SessionHandleLength and all characters belong to the Base62Chars set.
func IsValidSessionHandle(handle string) bool {
	if len(handle) != SessionHandleLength {
		return false
	}

	for _, char := range handle {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
