package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	"github.com/ardanlabs/blockminer/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockminer/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockminer/foundation/blockchain/signature"
	"github.com/ardanlabs/blockminer/foundation/blockchain/state"
	"github.com/ardanlabs/blockminer/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
	jsoniter "github.com/json-iterator/go"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

// =============================================================================

type sliceSource []database.Tx

func (ss sliceSource) LoadAll() ([]database.Tx, error) {
	return ss, nil
}

type faultSource struct{}

func (faultSource) LoadAll() ([]database.Tx, error) {
	return nil, errors.New("disk on fire")
}

func pendingTxs(t *testing.T) []database.Tx {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load a private key: %v", failed, err)
	}

	funding := database.Tx{
		TxID: "funding",
		Vout: []database.Output{
			{ScriptPubKey: "0014aa", ScriptPubKeyAddress: "alice", Value: 100},
		},
	}

	spend := database.Tx{
		TxID: "spend",
		Vin: []database.Input{
			{TxID: "funding", Prevout: funding.Vout[0]},
		},
		Vout: []database.Output{
			{ScriptPubKey: "0014bb", ScriptPubKeyAddress: "bob", Value: 90},
		},
	}

	msg, err := spend.SigningHash()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to hash the transaction: %v", failed, err)
	}
	sig, pub := signature.Sign(msg, pk)
	spend.Vin[0].Witness = []string{sig, pub}

	return []database.Tx{funding, spend}
}

func easyGenesis() genesis.Genesis {
	gen := genesis.Default()
	gen.Difficulty = "0"
	return gen
}

// =============================================================================

func Test_MineCoinbaseOnlyBlock(t *testing.T) {
	txs := pendingTxs(t)
	txs[1].Vin[0].Witness = nil

	t.Log("Given the need to mine a block when every pending transaction is rejected.")
	{
		st, err := state.New(state.Config{
			Genesis:  easyGenesis(),
			Source:   sliceSource(txs),
			Workers:  2,
			NonceEnd: 1 << 16,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the state.", success)

		result, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a coinbase only block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a coinbase only block.", success)

		if len(result.TxIDs) != 0 {
			t.Fatalf("\t%s\tShould accept no transactions, got %v.", failed, result.TxIDs)
		}
		t.Logf("\t%s\tShould accept no transactions.", success)

		block, mined := st.RetrieveLatestBlock()
		if !mined || block.Hash != result.Hash {
			t.Fatalf("\t%s\tShould keep the mined block as the latest.", failed)
		}
		t.Logf("\t%s\tShould keep the mined block as the latest.", success)

		if st.RetrieveStatus().Phase != state.PhaseMined {
			t.Fatalf("\t%s\tShould end in the mined phase, got %s.", failed, st.RetrieveStatus().Phase)
		}
		t.Logf("\t%s\tShould end in the mined phase.", success)
	}
}

func Test_MineNewBlock(t *testing.T) {
	t.Log("Given the need to mine a block from pending transactions.")
	{
		st, err := state.New(state.Config{
			Genesis:  easyGenesis(),
			Source:   sliceSource(pendingTxs(t)),
			Workers:  4,
			NonceEnd: 1 << 16,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the state.", success)

		result, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		if !strings.HasPrefix(result.Hash, "0") || len(result.Hash) != signature.HashHexLength {
			t.Fatalf("\t%s\tShould get back a hash solving the target: %s", failed, result.Hash)
		}
		t.Logf("\t%s\tShould get back a hash solving the target.", success)

		if len(result.TxIDs) != 1 || result.TxIDs[0] != "spend" {
			t.Logf("\t%s\tgot: %v", failed, result.TxIDs)
			t.Fatalf("\t%s\tShould only accept the signed transaction.", failed)
		}
		t.Logf("\t%s\tShould only accept the signed transaction.", success)

		if result.Coinbase.Vout[0].Value != genesis.DefaultMiningReward {
			t.Fatalf("\t%s\tShould hand back the coinbase with the reward.", failed)
		}
		t.Logf("\t%s\tShould hand back the coinbase with the reward.", success)

		block, mined := st.RetrieveLatestBlock()
		if !mined || block.Hash != result.Hash || block.Nonce != result.Nonce {
			t.Fatalf("\t%s\tShould keep the mined block as the latest block.", failed)
		}
		t.Logf("\t%s\tShould keep the mined block as the latest block.", success)

		if status := st.RetrieveStatus(); status.Phase != state.PhaseMined || status.Pending != 2 || status.Accepted != 1 {
			t.Logf("\t%s\tgot: %+v", failed, status)
			t.Fatalf("\t%s\tShould report the mined status.", failed)
		}
		t.Logf("\t%s\tShould report the mined status.", success)
	}
}

func Test_MineNewBlockFromMempool(t *testing.T) {
	t.Log("Given the need to mine a block from a mempool folder.")
	{
		dir := t.TempDir()
		for i, tx := range pendingTxs(t) {
			data, err := jsoniter.Marshal(tx)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to encode the record: %v", failed, err)
			}
			name := filepath.Join(dir, string(rune('a'+i))+".json")
			if err := os.WriteFile(name, data, 0600); err != nil {
				t.Fatalf("\t%s\tShould be able to write the record: %v", failed, err)
			}
		}

		mp, err := mempool.New(dir)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the mempool: %v", failed, err)
		}

		st, err := state.New(state.Config{
			Genesis:  easyGenesis(),
			Source:   mp,
			Workers:  2,
			NonceEnd: 1 << 16,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		result, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		if len(result.TxIDs) != 1 {
			t.Fatalf("\t%s\tShould accept the record that spends a known output.", failed)
		}
		t.Logf("\t%s\tShould mine a block from the records.", success)
	}
}

func Test_MineNewBlockOutcomes(t *testing.T) {
	t.Log("Given the need to tell the ways a run can end apart.")
	{
		st, err := state.New(state.Config{
			Genesis:  genesis.Default(),
			Source:   sliceSource(pendingTxs(t)),
			Workers:  2,
			NonceEnd: 500,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		_, err = st.MineNewBlock(context.Background())
		if !errors.Is(err, state.ErrNotMined) || !errors.Is(err, worker.ErrExhausted) {
			t.Fatalf("\t%s\tShould report an exhausted search as not mined: %v", failed, err)
		}
		if errors.Is(err, state.ErrInvalidBlock) {
			t.Fatalf("\t%s\tShould not report an exhausted search as an invalid block.", failed)
		}
		t.Logf("\t%s\tShould report an exhausted search as not mined.", success)

		if _, mined := st.RetrieveLatestBlock(); mined {
			t.Fatalf("\t%s\tShould not keep a block after a failed run.", failed)
		}
		if st.RetrieveStatus().Phase != state.PhaseFailed {
			t.Fatalf("\t%s\tShould report the failed status.", failed)
		}
		t.Logf("\t%s\tShould not produce partial output.", success)

		st, err = state.New(state.Config{
			Genesis: genesis.Default(),
			Source:  faultSource{},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		_, err = st.MineNewBlock(context.Background())
		if err == nil || errors.Is(err, state.ErrNotMined) || errors.Is(err, state.ErrInvalidBlock) {
			t.Fatalf("\t%s\tShould return a source fault as a plain error: %v", failed, err)
		}
		t.Logf("\t%s\tShould return a source fault as a plain error.", success)
	}
}
