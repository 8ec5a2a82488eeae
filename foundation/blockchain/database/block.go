package database

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/ardanlabs/blockminer/foundation/blockchain/signature"
)

// Rules are the fixed chain parameters a block is built and checked against.
type Rules struct {
	Target       string // Prefix the hex form of the block hash must have.
	MaxBlockSize int    // Byte budget for the ordinary transactions.
	Reward       uint64 // Value of the single coinbase output.
	Beneficiary  string // Locking script for the coinbase output.
}

// Block represents a group of transactions batched together with the
// reward for mining them.
type Block struct {
	Transactions []Tx   `json:"transactions"`
	Coinbase     Tx     `json:"coinbase_transaction"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash,omitempty"`
}

// Serialize returns the canonical bytes of the block for its current nonce.
func (b Block) Serialize() ([]byte, error) {
	h, err := newHasher(b)
	if err != nil {
		return nil, err
	}

	return h.serialize(b.Nonce), nil
}

// CalculateHash returns the hex encoded sha256 of the serialized block.
func (b Block) CalculateHash() (string, error) {
	data, err := b.Serialize()
	if err != nil {
		return "", err
	}

	return signature.HashBytes(data), nil
}

// TxIDs returns the ids of the ordinary transactions in block order.
func (b Block) TxIDs() []string {
	ids := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		ids[i] = tx.TxID
	}
	return ids
}

// Copy returns a block that shares no slices with the original so it can
// be handed to a mining worker.
func (b Block) Copy() Block {
	cpy := b
	cpy.Transactions = slices.Clone(b.Transactions)
	return cpy
}

// =============================================================================

// hasher holds the canonical encoding of a block split around the nonce so
// each attempt only has to format the nonce. Keys are emitted in sorted
// order: coinbase_transaction, nonce, transactions.
type hasher struct {
	prefix []byte
	suffix []byte
	buf    []byte
}

func newHasher(b Block) (*hasher, error) {
	coinbase, err := signature.Canonical(b.Coinbase)
	if err != nil {
		return nil, fmt.Errorf("encoding coinbase: %w", err)
	}

	trans, err := signature.Canonical(b.Transactions)
	if err != nil {
		return nil, fmt.Errorf("encoding transactions: %w", err)
	}

	h := hasher{
		prefix: append(append([]byte(`{"coinbase_transaction":`), coinbase...), `,"nonce":`...),
		suffix: append(append([]byte(`,"transactions":`), trans...), '}'),
	}
	h.buf = make([]byte, 0, len(h.prefix)+len(h.suffix)+20)

	return &h, nil
}

// serialize returns the block bytes for the nonce. The returned slice is
// reused by the next call.
func (h *hasher) serialize(nonce uint64) []byte {
	h.buf = append(h.buf[:0], h.prefix...)
	h.buf = strconv.AppendUint(h.buf, nonce, 10)
	h.buf = append(h.buf, h.suffix...)
	return h.buf
}

func (h *hasher) hash(nonce uint64) string {
	return signature.HashBytes(h.serialize(nonce))
}

// =============================================================================

// ValidateBlock re-checks a mined block before it is accepted. The utxo set
// must be the state the block was built from; it is copied and not changed.
func ValidateBlock(b Block, set *UTXOSet, rules Rules, evHandler EventHandler) error {
	ev := orNoEvents(evHandler)

	ev("database: ValidateBlock: check: coinbase reward")

	if len(b.Coinbase.Vin) != 0 || len(b.Coinbase.Vout) != 1 {
		return fmt.Errorf("%w: coinbase must have no inputs and one output", ErrBadReward)
	}
	if v := b.Coinbase.Vout[0].Value; v != rules.Reward {
		return fmt.Errorf("%w: got %d, exp %d", ErrBadReward, v, rules.Reward)
	}

	ev("database: ValidateBlock: check: block hash has been solved")

	hash, err := b.CalculateHash()
	if err != nil {
		return err
	}
	if hash != b.Hash {
		return fmt.Errorf("block hash does not match contents, got %s, exp %s", b.Hash, hash)
	}
	if !IsHashSolved(rules.Target, hash) {
		return fmt.Errorf("%s invalid block hash", hash)
	}

	ev("database: ValidateBlock: check: transactions against utxo set")

	var total int
	replay := set.Copy()
	for _, tx := range b.Transactions {
		if err := CheckTransaction(tx, replay); err != nil {
			return fmt.Errorf("tx[%s]: %w", tx, err)
		}

		size, err := tx.Size()
		if err != nil {
			return fmt.Errorf("tx[%s]: %w", tx, err)
		}
		total += size

		for _, in := range tx.Vin {
			if err := replay.Remove(in.Prevout.Ref()); err != nil {
				return fmt.Errorf("tx[%s]: %w", tx, err)
			}
		}
	}

	if total > rules.MaxBlockSize {
		return fmt.Errorf("block transactions are %d bytes, budget is %d", total, rules.MaxBlockSize)
	}

	return nil
}

// IsValid is the predicate form of ValidateBlock.
func (b Block) IsValid(set *UTXOSet, rules Rules) bool {
	return ValidateBlock(b, set, rules, nil) == nil
}
