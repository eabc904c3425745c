package clock

import "time"

// SystemClock reads the wall clock in UTC. Stores stamp records with it and
// the query cache measures staleness against it.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }
