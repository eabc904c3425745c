package clock

import "time"

// Clock provides time to the stores and the query cache.
// Staleness checks and server-assigned timestamps both read from it, so tests
// can drive them with a controllable implementation.
type Clock interface {
	Now() time.Time
}
