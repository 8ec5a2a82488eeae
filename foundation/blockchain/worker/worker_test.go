package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	"github.com/ardanlabs/blockminer/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func testBlock() database.Block {
	return database.Block{
		Transactions: []database.Tx{},
		Coinbase:     database.NewCoinbaseTx(625000000, "scriptpubkey_value"),
	}
}

// =============================================================================

func Test_Partition(t *testing.T) {
	tt := []struct {
		name string
		end  uint64
		n    int
		exp  int
	}{
		{name: "one", end: worker.NonceDomain, n: 1, exp: 1},
		{name: "three", end: worker.NonceDomain, n: 3, exp: 3},
		{name: "seven", end: worker.NonceDomain, n: 7, exp: 7},
		{name: "sixteen", end: worker.NonceDomain, n: 16, exp: 16},
		{name: "small", end: 10, n: 4, exp: 4},
		{name: "more workers than nonces", end: 10, n: 20, exp: 10},
	}

	t.Log("Given the need to split the nonce space over workers.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				ranges := worker.Partition(tst.end, tst.n)
				if len(ranges) != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould get %d ranges, got %d.", failed, testID, tst.exp, len(ranges))
				}
				t.Logf("\t%s\tTest %d:\tShould get %d ranges.", success, testID, tst.exp)

				var next, total uint64
				for i, r := range ranges {
					if r.Start != next {
						t.Fatalf("\t%s\tTest %d:\tShould have range %d start at %d, got %d.", failed, testID, i, next, r.Start)
					}
					if r.Len() == 0 {
						t.Fatalf("\t%s\tTest %d:\tShould not have an empty range %d.", failed, testID, i)
					}
					if i < len(ranges)-1 && r.Len() != ranges[0].Len() {
						t.Fatalf("\t%s\tTest %d:\tShould have equal sized ranges before the last.", failed, testID)
					}
					next = r.End
					total += r.Len()
				}

				if next != tst.end || total != tst.end {
					t.Fatalf("\t%s\tTest %d:\tShould cover [0, %d) exactly once, end[%d] total[%d].", failed, testID, tst.end, next, total)
				}
				t.Logf("\t%s\tTest %d:\tShould cover the nonce space exactly once.", success, testID)

				last := ranges[len(ranges)-1]
				if rem := tst.end % uint64(len(ranges)); last.Len() != ranges[0].Len()+rem && len(ranges) > 1 {
					t.Fatalf("\t%s\tTest %d:\tShould give the remainder to the last range.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould give the remainder to the last range.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_SearchSolvedImmediately(t *testing.T) {
	block := testBlock()

	target, err := block.CalculateHash()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to hash the block: %v", failed, err)
	}

	cfg := worker.Config{
		Target:  target,
		Workers: 4,
	}

	t.Log("Given the need to stop every worker once the block is solved.")
	{
		done := make(chan struct{})
		var res worker.Result
		go func() {
			defer close(done)
			res, err = worker.Search(context.Background(), block, cfg, nil)
		}()

		select {
		case <-done:
		case <-time.After(30 * time.Second):
			t.Fatalf("\t%s\tShould terminate promptly.", failed)
		}
		t.Logf("\t%s\tShould terminate promptly.", success)

		if err != nil {
			t.Fatalf("\t%s\tShould solve the block: %v", failed, err)
		}
		if !res.Solved || res.Nonce != 0 || res.Hash != target {
			t.Logf("\t%s\tgot: %+v", failed, res)
			t.Fatalf("\t%s\tShould solve the block at nonce 0.", failed)
		}
		t.Logf("\t%s\tShould solve the block at nonce 0.", success)

		for i, st := range res.Stats[1:] {
			if st.Scanned >= st.Range.Len() {
				t.Fatalf("\t%s\tShould not fully scan range %s of worker %d.", failed, st.Range, i+1)
			}
			if !st.Cancelled {
				t.Fatalf("\t%s\tShould cancel worker %d.", failed, i+1)
			}
		}
		t.Logf("\t%s\tShould cancel every other worker before its range is scanned.", success)
	}
}

func Test_SearchExhausted(t *testing.T) {
	cfg := worker.Config{
		Target:   "not a hex prefix",
		Workers:  4,
		NonceEnd: 1000,
	}

	t.Log("Given the need to report a search that finds nothing.")
	{
		res, err := worker.Search(context.Background(), testBlock(), cfg, nil)
		if !errors.Is(err, worker.ErrExhausted) {
			t.Fatalf("\t%s\tShould get back ErrExhausted: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back ErrExhausted.", success)

		if res.Solved || res.Hash != "" || res.Nonce != 0 {
			t.Logf("\t%s\tgot: %+v", failed, res)
			t.Fatalf("\t%s\tShould not report a false positive.", failed)
		}
		t.Logf("\t%s\tShould not report a false positive.", success)

		var scanned uint64
		for _, st := range res.Stats {
			scanned += st.Scanned
		}
		if scanned != cfg.NonceEnd {
			t.Fatalf("\t%s\tShould scan every nonce once, scanned %d.", failed, scanned)
		}
		t.Logf("\t%s\tShould scan every nonce once.", success)
	}
}

func Test_SearchDeadline(t *testing.T) {
	cfg := worker.Config{
		Target:  "not a hex prefix",
		Workers: 2,
		Timeout: 50 * time.Millisecond,
	}

	t.Log("Given the need to bound how long a search can run.")
	{
		res, err := worker.Search(context.Background(), testBlock(), cfg, nil)
		if !errors.Is(err, worker.ErrDeadline) {
			t.Fatalf("\t%s\tShould get back ErrDeadline: %v", failed, err)
		}
		if errors.Is(err, worker.ErrExhausted) {
			t.Fatalf("\t%s\tShould be told apart from an exhausted search.", failed)
		}
		t.Logf("\t%s\tShould get back ErrDeadline.", success)

		if res.Solved {
			t.Fatalf("\t%s\tShould not report a solution.", failed)
		}
		t.Logf("\t%s\tShould not report a solution.", success)
	}
}

func Test_SearchFirstArrival(t *testing.T) {
	cfg := worker.Config{
		Target:   "",
		Workers:  8,
		NonceEnd: 8000,
	}

	t.Log("Given the need to accept the first solution to arrive.")
	{
		res, err := worker.Search(context.Background(), testBlock(), cfg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould solve the block: %v", failed, err)
		}

		var starts bool
		for _, r := range worker.Partition(cfg.NonceEnd, cfg.Workers) {
			if res.Nonce == r.Start {
				starts = true
			}
		}
		if !starts {
			t.Fatalf("\t%s\tShould get back the first nonce of one of the ranges, got %d.", failed, res.Nonce)
		}
		t.Logf("\t%s\tShould get back the first nonce of one of the ranges.", success)
	}
}
