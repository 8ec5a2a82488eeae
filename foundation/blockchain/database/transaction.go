package database

import (
	"fmt"
	"math/bits"

	"github.com/ardanlabs/blockminer/foundation/blockchain/signature"
	"github.com/ardanlabs/blockminer/foundation/validate"
)

// OutputRef names a spendable output. Inputs cite the output they spend
// by this value and the utxo set is keyed on it.
type OutputRef string

// Output is a value locked to a spending condition.
type Output struct {
	ScriptPubKey        string    `json:"scriptpubkey"`                   // Bitcoin: Locking script.
	ScriptPubKeyAddress OutputRef `json:"scriptpubkey_address,omitempty"` // Bitcoin: Address form of the locking script.
	Value               uint64    `json:"value"`                          // Bitcoin: Amount in base units.
}

// Ref returns the reference this output is later cited by.
func (o Output) Ref() OutputRef {
	return o.ScriptPubKeyAddress
}

// Input spends a previous output. The witness carries the DER signature
// and the public key, both hex encoded.
type Input struct {
	TxID    string   `json:"txid"`
	Vout    uint32   `json:"vout"`
	Prevout Output   `json:"prevout"`
	Witness []string `json:"witness,omitempty"`
}

// Tx is a transaction as it is read from the mempool.
type Tx struct {
	TxID string   `json:"txid" validate:"required"`
	Vin  []Input  `json:"vin" validate:"dive"`
	Vout []Output `json:"vout" validate:"required,min=1,dive"`
}

// NewCoinbaseTx constructs the reward transaction for a block. It has no
// inputs and a single output carrying the reward.
func NewCoinbaseTx(reward uint64, scriptPubKey string) Tx {
	return Tx{
		TxID: "coinbase_tx_id",
		Vin:  []Input{},
		Vout: []Output{
			{
				ScriptPubKey: scriptPubKey,
				Value:        reward,
			},
		},
	}
}

// Validate checks the shape of the transaction as it was read from storage.
// It says nothing about balance, availability or authorization.
func (tx Tx) Validate() error {
	if err := validate.Check(tx); err != nil {
		return fmt.Errorf("tx[%s]: %w", tx.TxID, err)
	}

	return nil
}

// InputSum returns the total value of the outputs being spent. The bool is
// false when the total doesn't fit in a uint64.
func (tx Tx) InputSum() (uint64, bool) {
	values := make([]uint64, len(tx.Vin))
	for i, in := range tx.Vin {
		values[i] = in.Prevout.Value
	}
	return sumValues(values)
}

// OutputSum returns the total value of the outputs being created. The bool
// is false when the total doesn't fit in a uint64.
func (tx Tx) OutputSum() (uint64, bool) {
	values := make([]uint64, len(tx.Vout))
	for i, out := range tx.Vout {
		values[i] = out.Value
	}
	return sumValues(values)
}

func sumValues(values []uint64) (uint64, bool) {
	var sum, carry uint64
	for _, v := range values {
		sum, carry = bits.Add64(sum, v, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return sum, true
}

// Size returns the number of bytes of the canonical encoding. This is what
// counts against the block size budget.
func (tx Tx) Size() (int, error) {
	data, err := signature.Canonical(tx)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// SigningHash returns the message every input witness signs. Witnesses are
// cleared first since a signature can't cover itself.
func (tx Tx) SigningHash() ([]byte, error) {
	cpy := tx
	cpy.Vin = make([]Input, len(tx.Vin))
	for i, in := range tx.Vin {
		in.Witness = nil
		cpy.Vin[i] = in
	}

	return signature.MessageHash(cpy)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return tx.TxID
}
