package pathutil

import (
	"errors"
	"strings"
)

// ErrInvalidID is returned when the key in the URL path is missing or malformed.
var ErrInvalidID = errors.New("invalid id")

// ExtractKey returns the single path segment that follows prefix.
//
// Example:
//
//	key, err := ExtractKey("/entries/ent_01j9z3k5", "/entries/")
//	// Returns: "ent_01j9z3k5", nil
func ExtractKey(path, prefix string) (string, error) {
	return ExtractKeyBetween(path, prefix, "")
}

// ExtractKeyBetween returns the single path segment between prefix and suffix.
//
// Example:
//
//	id, err := ExtractKeyBetween("/admin/entries/ent_1/review-status", "/admin/entries/", "/review-status")
//	// Returns: "ent_1", nil
func ExtractKeyBetween(path, prefix, suffix string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", ErrInvalidID
	}
	key := strings.TrimPrefix(path, prefix)
	if suffix != "" {
		if !strings.HasSuffix(key, suffix) {
			return "", ErrInvalidID
		}
		key = strings.TrimSuffix(key, suffix)
	}
	key = strings.TrimSuffix(key, "/")
	if key == "" || strings.Contains(key, "/") || len(key) > 255 {
		return "", ErrInvalidID
	}
	return key, nil
}
