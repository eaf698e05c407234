package domain

import (
	"strconv"
	"unicode/utf8"
)

const (
	// MaxKeyLen is the longest key accepted, in bytes.
	MaxKeyLen = 512
	// DefaultMaxValueLen is the default limit on a stored value, in bytes.
	DefaultMaxValueLen = 1 << 20
)

// ValidateKey checks that key is non-empty valid UTF-8 of at most MaxKeyLen
// bytes without control characters.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey.WithDetails("key is empty")
	}
	if len(key) > MaxKeyLen {
		return ErrInvalidKey.WithDetails("key exceeds " + strconv.Itoa(MaxKeyLen) + " bytes")
	}
	if !utf8.ValidString(key) {
		return ErrInvalidKey.WithDetails("key is not valid UTF-8")
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return ErrInvalidKey.WithDetails("key contains control characters")
		}
	}
	return nil
}

// ValidateValue checks value against limit. A non-positive limit disables
// the check.
func ValidateValue(value []byte, limit int) error {
	if limit > 0 && len(value) > limit {
		return ErrValueTooLarge.WithDetails(strconv.Itoa(len(value)) + " bytes exceeds limit of " + strconv.Itoa(limit))
	}
	return nil
}
