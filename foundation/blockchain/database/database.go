// Package database handles the in memory model of the pending transactions,
// the set of spendable outputs and the block being assembled and mined.
package database

import "errors"

// Set of errors produced while checking transactions and blocks.
var (
	ErrUTXONotFound = errors.New("output reference not found in utxo set")
	ErrUnbalanced   = errors.New("transaction outputs exceed inputs")
	ErrMissingUTXO  = errors.New("transaction references an unavailable output")
	ErrUnauthorized = errors.New("transaction witness does not verify")
	ErrBadReward    = errors.New("coinbase reward does not match the block reward")
)

// EventHandler defines a function that is called when events
// occur in the processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// noEvents is used when a caller doesn't provide a handler.
func noEvents(v string, args ...any) {}

func orNoEvents(ev EventHandler) EventHandler {
	if ev == nil {
		return noEvents
	}
	return ev
}
