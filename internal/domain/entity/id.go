package entity

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntryIDPrefix marks entry identifiers so they can be told apart from user ids.
const EntryIDPrefix = "ent_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewEntryID returns a new ent_* ULID. IDs sort by creation time.
func NewEntryID(now time.Time) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	return EntryIDPrefix + strings.ToLower(id.String())
}

// IsEntryID reports whether the string is an ent_* ULID.
func IsEntryID(value string) bool {
	if !strings.HasPrefix(value, EntryIDPrefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(strings.TrimPrefix(value, EntryIDPrefix)))
	return err == nil
}
