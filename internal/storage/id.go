package storage

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a new unique record id. UUIDv7 combines a millisecond
// timestamp with random bits, so ids sort roughly by creation time and
// collisions are negligible.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		id = uuid.New()
	}
	return id.String()
}

// Now returns the current UTC time truncated to whole seconds, which
// keeps persisted timestamps as plain ISO-8601 strings.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
