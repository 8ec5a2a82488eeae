package database

import (
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/signature"
)

// ValidateTransaction reports whether the transaction can be accepted
// against the current set of spendable outputs.
func ValidateTransaction(tx Tx, set *UTXOSet) bool {
	return CheckTransaction(tx, set) == nil
}

// CheckTransaction performs the balance, availability and authorization
// checks in that order and returns the reason for the first failure. The
// set is only read.
func CheckTransaction(tx Tx, set *UTXOSet) error {
	in, inOK := tx.InputSum()
	out, outOK := tx.OutputSum()
	switch {
	case !inOK || !outOK:
		return fmt.Errorf("%w: value total overflows", ErrUnbalanced)
	case in < out:
		return fmt.Errorf("%w: in[%d] out[%d]", ErrUnbalanced, in, out)
	}

	// An output can only be consumed once, even inside one transaction.
	seen := make(map[OutputRef]struct{}, len(tx.Vin))
	for _, in := range tx.Vin {
		ref := in.Prevout.Ref()
		if _, exists := seen[ref]; exists || !set.Contains(ref) {
			return fmt.Errorf("%w: %s", ErrMissingUTXO, ref)
		}
		seen[ref] = struct{}{}
	}

	msgHash, err := tx.SigningHash()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnauthorized, err)
	}

	for i, in := range tx.Vin {
		if !in.verify(msgHash) {
			return fmt.Errorf("%w: input[%d]", ErrUnauthorized, i)
		}
	}

	return nil
}

// verify checks the witness of the input against the message hash.
func (in Input) verify(msgHash []byte) bool {
	if len(in.Witness) < 2 {
		return false
	}

	return signature.VerifyHex(in.Witness[0], in.Witness[1], msgHash)
}
