// Package storage writes the outcome of a mining run where it can be
// picked up by whoever asked for the block.
package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	jsoniter "github.com/json-iterator/go"
)

// Result is what gets handed back for a mined and validated block.
type Result struct {
	Hash     string      `json:"hash"`
	Nonce    uint64      `json:"nonce"`
	Coinbase database.Tx `json:"coinbase_transaction"`
	TxIDs    []string    `json:"txids"`
}

// NewResult constructs the result for a mined block.
func NewResult(block database.Block) Result {
	return Result{
		Hash:     block.Hash,
		Nonce:    block.Nonce,
		Coinbase: block.Coinbase,
		TxIDs:    block.TxIDs(),
	}
}

// =============================================================================

// Disk writes a result to a single file. The first line is the block hash,
// the second is the coinbase transaction as JSON and every line after that
// is the id of a transaction in block order.
type Disk struct {
	path string
}

// NewDisk constructs a Disk for the file path, creating its folder if needed.
func NewDisk(path string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	return &Disk{path: path}, nil
}

// Write replaces the file with the result.
func (d *Disk) Write(result Result) error {
	coinbase, err := jsoniter.Marshal(result.Coinbase)
	if err != nil {
		return fmt.Errorf("encoding coinbase: %w", err)
	}

	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, result.Hash)
	fmt.Fprintln(w, string(coinbase))
	for _, id := range result.TxIDs {
		fmt.Fprintln(w, id)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	return f.Close()
}

// Path returns the file being written to.
func (d *Disk) Path() string {
	return d.path
}
