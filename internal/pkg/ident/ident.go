// Package ident provides entity ID generation.
//
// IDs are ULIDs with a short entity prefix ("blog_01J...") so an ID read
// out of a log or a store key is self-describing. ULIDs are time-ordered,
// which keeps newest-first listings cheap.
package ident

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// New generates a new prefixed ID, e.g. New("blog") -> "blog_01J8F...".
func New(prefix string) string {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return prefix + "_" + id.String()
}

// NewFromTime generates a prefixed ID with a specific timestamp.
func NewFromTime(prefix string, t time.Time) string {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	return prefix + "_" + id.String()
}

// Time extracts the creation timestamp from a prefixed ID.
func Time(id string) (time.Time, error) {
	raw := id
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		raw = id[i+1:]
	}
	u, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
