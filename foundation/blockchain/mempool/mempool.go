// Package mempool provides read access to the pending transactions that are
// waiting to be mined. Each transaction is a JSON record in its own file.
package mempool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	jsoniter "github.com/json-iterator/go"
)

// ErrEndOfPool is returned by the iterator once every record has been read.
var ErrEndOfPool = errors.New("end of mempool")

// Mempool represents a folder of transaction records.
type Mempool struct {
	dir   string
	files []string
}

// New constructs a mempool over the *.json files in the folder. Files are
// visited in name order so every run sees the same transaction order.
func New(dir string) (*Mempool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading mempool folder: %w", err)
	}

	mp := Mempool{
		dir: dir,
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		mp.files = append(mp.files, entry.Name())
	}

	return &mp, nil
}

// Count returns the number of records in the pool.
func (mp *Mempool) Count() int {
	return len(mp.files)
}

// ForEach returns an iterator to walk through all the records.
func (mp *Mempool) ForEach() *Iterator {
	return &Iterator{mp: mp}
}

// LoadAll reads every record in the pool. Any record that can't be read,
// decoded or fails its shape check stops the load.
func (mp *Mempool) LoadAll() ([]database.Tx, error) {
	txs := make([]database.Tx, 0, len(mp.files))

	iter := mp.ForEach()
	for !iter.Done() {
		tx, err := iter.Next()
		if err != nil {
			if errors.Is(err, ErrEndOfPool) {
				break
			}
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// =============================================================================

// Iterator reads records one at a time as they are asked for.
type Iterator struct {
	mp      *Mempool
	current int
}

// Next reads, decodes and checks the next record.
func (it *Iterator) Next() (database.Tx, error) {
	if it.Done() {
		return database.Tx{}, ErrEndOfPool
	}

	name := it.mp.files[it.current]
	it.current++

	content, err := os.ReadFile(filepath.Join(it.mp.dir, name))
	if err != nil {
		return database.Tx{}, fmt.Errorf("reading %s: %w", name, err)
	}

	var tx database.Tx
	if err := jsoniter.Unmarshal(content, &tx); err != nil {
		return database.Tx{}, fmt.Errorf("decoding %s: %w", name, err)
	}

	if err := tx.Validate(); err != nil {
		return database.Tx{}, fmt.Errorf("checking %s: %w", name, err)
	}

	return tx, nil
}

// Done reports whether every record has been read.
func (it *Iterator) Done() bool {
	return it.current >= len(it.mp.files)
}
