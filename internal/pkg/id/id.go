package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is monotonic so IDs minted within the same millisecond still sort
// in creation order.
var entropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// At generates a ULID whose time component is t, so sort keys follow an
// injected clock in tests.
func At(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
