// Package state is the core API for the miner and runs the pipeline from
// pending transactions to a mined and validated block.
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	"github.com/ardanlabs/blockminer/foundation/blockchain/genesis"
)

// Set of terminal outcomes for a run that didn't produce a block.
var (
	ErrNotMined     = errors.New("failed to mine a valid block")
	ErrInvalidBlock = errors.New("mined block is not valid")
)

// EventHandler defines a function that is called when events
// occur in the processing of the pipeline.
type EventHandler func(v string, args ...any)

// TxSource represents the behavior required from the store of pending
// transactions.
type TxSource interface {
	LoadAll() ([]database.Tx, error)
}

// =============================================================================

// Config represents the configuration required to start the miner.
type Config struct {
	Genesis   genesis.Genesis
	Source    TxSource
	Workers   int
	NonceEnd  uint64
	Timeout   time.Duration
	EvHandler EventHandler
}

// Phase names the step of the pipeline a run is in.
type Phase string

// Set of phases a run moves through.
const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseBuilding   Phase = "building"
	PhaseMining     Phase = "mining"
	PhaseValidating Phase = "validating"
	PhaseMined      Phase = "mined"
	PhaseFailed     Phase = "failed"
)

// Status is a snapshot of where the pipeline is.
type Status struct {
	Phase    Phase  `json:"phase"`
	Pending  int    `json:"pending"`
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// State manages the mining pipeline.
type State struct {
	genesis   genesis.Genesis
	source    TxSource
	workers   int
	nonceEnd  uint64
	timeout   time.Duration
	evHandler EventHandler

	mu     sync.RWMutex
	status Status
	latest database.Block
	mined  bool
}

// New constructs a new state for running the pipeline.
func New(cfg Config) (*State, error) {
	if cfg.Source == nil {
		return nil, errors.New("a transaction source is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if !cfg.Genesis.Satisfiable() {
		ev("state: New: WARNING: difficulty target[%d chars] is longer than a hash and can't be met", len(cfg.Genesis.Difficulty))
	}

	s := State{
		genesis:   cfg.Genesis,
		source:    cfg.Source,
		workers:   cfg.Workers,
		nonceEnd:  cfg.NonceEnd,
		timeout:   cfg.Timeout,
		evHandler: ev,
		status:    Status{Phase: PhaseIdle},
	}

	return &s, nil
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveStatus returns where the pipeline is.
func (s *State) RetrieveStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// RetrieveLatestBlock returns the last block mined and validated by this
// state. The bool is false until a run succeeds.
func (s *State) RetrieveLatestBlock() (database.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest, s.mined
}

// =============================================================================

func (s *State) setPhase(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Phase = phase
}

func (s *State) updateStatus(fn func(st *Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.status)
}
