// Package worker implements the parallel proof of work search. The nonce
// space is split into contiguous ranges and each range is searched by its
// own goroutine working on a private copy of the block.
package worker

import (
	"errors"
	"fmt"
	"time"
)

// NonceDomain is the end of the 32 bit nonce space searched by default.
const NonceDomain uint64 = 1 << 32

// Set of outcomes for a search that didn't produce a block hash.
var (
	ErrExhausted = errors.New("searched every nonce without solving the block")
	ErrDeadline  = errors.New("search deadline elapsed before the block was solved")
)

// EventHandler defines a function that is called when events
// occur in the processing of the search.
type EventHandler func(v string, args ...any)

// Config represents the settings for a parallel search.
type Config struct {
	Target   string        // Prefix the hex block hash must have.
	Workers  int           // Number of goroutines, one range each.
	NonceEnd uint64        // Exclusive end of the nonce space. Zero means NonceDomain.
	Timeout  time.Duration // Zero means no deadline.
}

// Range is a half open interval of nonces [Start, End).
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of nonces in the range.
func (r Range) Len() uint64 {
	return r.End - r.Start
}

// String implements the fmt.Stringer interface for logging.
func (r Range) String() string {
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// Stat describes what one worker did during a search.
type Stat struct {
	Range     Range
	Scanned   uint64
	Solved    bool
	Cancelled bool
}

// Result is the outcome of a parallel search. Hash and Nonce are only set
// when Solved is true.
type Result struct {
	Hash     string
	Nonce    uint64
	Solved   bool
	Stats    []Stat
	Duration time.Duration
}

// =============================================================================

// Partition splits [0, end) into n contiguous ranges of equal size, with
// the remainder added to the last range. Fewer ranges are returned when
// there are fewer nonces than n, so no range is empty.
func Partition(end uint64, n int) []Range {
	if end == 0 || n <= 0 {
		return nil
	}

	if uint64(n) > end {
		n = int(end)
	}

	size := end / uint64(n)
	ranges := make([]Range, n)
	for i := range ranges {
		ranges[i] = Range{
			Start: uint64(i) * size,
			End:   uint64(i+1) * size,
		}
	}
	ranges[n-1].End = end

	return ranges
}
