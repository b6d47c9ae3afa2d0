package document

import (
	"context"
	"time"
)

// SequenceAllocator hands out document numbers.
// Implementations must be atomic across processes: two concurrent calls for
// the same prefix never receive the same (prefix, year, sequence).
type SequenceAllocator interface {
	// Next allocates the next sequence of prefix for the current calendar year.
	// The number is consumed on return, whatever happens to the document.
	Next(ctx context.Context, prefix string) (Number, error)

	// Peek returns the last sequence issued for (prefix, year), 0 if none
	Peek(ctx context.Context, prefix string, year int) (int64, error)
}

// Clock returns the current time; allocators take the year from it
type Clock func() time.Time

// SystemClock is the wall clock in local time
func SystemClock() time.Time {
	return time.Now()
}
