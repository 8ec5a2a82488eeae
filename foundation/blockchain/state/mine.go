package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	"github.com/ardanlabs/blockminer/foundation/blockchain/storage"
	"github.com/ardanlabs/blockminer/foundation/blockchain/worker"
)

// MineNewBlock runs the pipeline once. It reads the pending transactions,
// builds the utxo set and a block from them, searches for a nonce in
// parallel and validates the mined block. A search that ends without a
// solution returns ErrNotMined and a block that fails validation returns
// ErrInvalidBlock. Errors from the transaction source are returned as is.
func (s *State) MineNewBlock(ctx context.Context) (storage.Result, error) {
	result, err := s.mineNewBlock(ctx)
	if err != nil {
		s.updateStatus(func(st *Status) {
			st.Phase = PhaseFailed
			st.Error = err.Error()
		})
		return storage.Result{}, err
	}

	s.setPhase(PhaseMined)

	return result, nil
}

func (s *State) mineNewBlock(ctx context.Context) (storage.Result, error) {
	s.evHandler("state: MineNewBlock: MINING: load mempool")
	s.setPhase(PhaseLoading)

	txs, err := s.source.LoadAll()
	if err != nil {
		return storage.Result{}, fmt.Errorf("loading mempool: %w", err)
	}

	s.updateStatus(func(st *Status) { st.Pending = len(txs) })

	s.evHandler("state: MineNewBlock: MINING: build block: txs[%d]", len(txs))
	s.setPhase(PhaseBuilding)

	// The set is owned by this run. The copy is the state the block was
	// built from and is what the mined block gets checked against.
	rules := s.genesis.Rules()
	set := database.NewUTXOSet(txs)
	pre := set.Copy()

	block := database.BuildBlock(txs, set, rules, database.EventHandler(s.evHandler))

	s.updateStatus(func(st *Status) { st.Accepted = len(block.Transactions) })

	s.evHandler("state: MineNewBlock: MINING: perform POW: accepted[%d]", len(block.Transactions))
	s.setPhase(PhaseMining)

	cfg := worker.Config{
		Target:   rules.Target,
		Workers:  s.workers,
		NonceEnd: s.nonceEnd,
		Timeout:  s.timeout,
	}

	res, err := worker.Search(ctx, block, cfg, worker.EventHandler(s.evHandler))
	if err != nil {
		if errors.Is(err, worker.ErrExhausted) || errors.Is(err, worker.ErrDeadline) {
			return storage.Result{}, fmt.Errorf("%w: %w", ErrNotMined, err)
		}
		return storage.Result{}, err
	}

	block.Nonce = res.Nonce
	block.Hash = res.Hash

	s.evHandler("state: MineNewBlock: MINING: validate block: nonce[%d] hash[%s]", block.Nonce, block.Hash)
	s.setPhase(PhaseValidating)

	if err := database.ValidateBlock(block, pre, rules, database.EventHandler(s.evHandler)); err != nil {
		return storage.Result{}, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	s.mu.Lock()
	{
		s.latest = block
		s.mined = true
	}
	s.mu.Unlock()

	return storage.NewResult(block), nil
}
