package sortjoin

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrDuplicateKey = errors.New("duplicate key in unique column")
	ErrKeyNotFound  = errors.New("key not found in unique column")
)

// maxListedKeys bounds how many offending keys are rendered in Error().
const maxListedKeys = 10

// DuplicateKeyError reports the keys that occur more than once in the column an Index was
// built from. Keys holds every repeated key, formatted with fmt.
type DuplicateKeyError struct {
	Keys []string
}

func newDuplicateKeyError[K any](keys []K) *DuplicateKeyError {
	return &DuplicateKeyError{Keys: formatKeys(keys)}
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%v: %d repeated (%s)", ErrDuplicateKey, len(e.Keys), listKeys(e.Keys))
}

// Is reports whether target is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// KeyNotFoundError reports instance values that are absent from the indexed column, in the
// order they were encountered.
type KeyNotFoundError struct {
	Keys []string
}

func newKeyNotFoundError[K any](keys []K) *KeyNotFoundError {
	return &KeyNotFoundError{Keys: formatKeys(keys)}
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("%v: %d missing (%s)", ErrKeyNotFound, len(e.Keys), listKeys(e.Keys))
}

// Is reports whether target is ErrKeyNotFound.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// LengthMismatchError reports key and value columns of different lengths.
type LengthMismatchError struct {
	Keys   int
	Values int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("key column has %d rows but value column has %d", e.Keys, e.Values)
}

func formatKeys[K any](keys []K) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprint(k)
	}
	return out
}

func listKeys(keys []string) string {
	if len(keys) <= maxListedKeys {
		return strings.Join(keys, ", ")
	}
	return strings.Join(keys[:maxListedKeys], ", ") + ", ..."
}
