package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	"golang.org/x/sync/errgroup"
)

// Search partitions the nonce space over the configured number of workers
// and returns the first solution to arrive. Once a solution arrives the
// remaining workers are cancelled, and Search doesn't return until every
// worker has stopped. ErrExhausted is returned when no nonce solves the
// block and ErrDeadline when the configured timeout elapses first.
func Search(ctx context.Context, block database.Block, cfg Config, evHandler EventHandler) (Result, error) {
	ev := evHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	end := cfg.NonceEnd
	if end == 0 {
		end = NonceDomain
	}

	ranges := Partition(end, workers)

	ev("worker: Search: MINING: started: workers[%d] nonces[%d] target[%s]", len(ranges), end, cfg.Target)
	defer ev("worker: Search: MINING: completed")

	start := time.Now()

	// The deadline context is kept separate so a timeout can be told apart
	// from the cancel issued when a solution is found.
	deadlineCtx := ctx
	if cfg.Timeout > 0 {
		var cancelDeadline context.CancelFunc
		deadlineCtx, cancelDeadline = context.WithTimeout(ctx, cfg.Timeout)
		defer cancelDeadline()
	}

	searchCtx, cancel := context.WithCancel(deadlineCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(searchCtx)

	// Buffered so a worker never blocks reporting its result.
	results := make(chan database.SearchResult, len(ranges))
	stats := make([]Stat, len(ranges))

	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			res, err := database.Search(gctx, block.Copy(), cfg.Target, r.Start, r.End, database.EventHandler(ev))

			// Each worker only writes its own slot.
			stats[i] = Stat{
				Range:     r,
				Scanned:   res.Scanned,
				Solved:    res.Solved,
				Cancelled: err != nil && gctx.Err() != nil,
			}

			switch {
			case err == nil:
				results <- res
				return nil
			case gctx.Err() != nil:
				return nil
			default:
				return fmt.Errorf("range[%s]: %w", r, err)
			}
		})
	}

	// The results channel is closed once every worker has returned so the
	// loop below also acts as the join.
	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(results)
	}()

	var winner database.SearchResult
	for res := range results {
		if !res.Solved || winner.Solved {
			continue
		}

		winner = res
		ev("worker: Search: MINING: SOLVED: nonce[%d] hash[%s]: cancel remaining workers", res.Nonce, res.Hash)
		cancel()
	}

	if err := <-waitErr; err != nil {
		return Result{Stats: stats}, err
	}

	result := Result{
		Hash:     winner.Hash,
		Nonce:    winner.Nonce,
		Solved:   winner.Solved,
		Stats:    stats,
		Duration: time.Since(start),
	}

	ev("worker: Search: MINING: duration[%v]", result.Duration)

	switch {
	case result.Solved:
		return result, nil
	case ctx.Err() != nil:
		return result, ctx.Err()
	case errors.Is(deadlineCtx.Err(), context.DeadlineExceeded):
		return result, fmt.Errorf("%w: %v", ErrDeadline, cfg.Timeout)
	default:
		return result, ErrExhausted
	}
}
