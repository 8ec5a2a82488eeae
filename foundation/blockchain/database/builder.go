package database

// BuildBlock selects transactions into a new block in the order they are
// provided. A transaction is accepted when it validates against the set and
// still fits in the size budget; the outputs it spends are then removed
// from the set. Anything else is skipped and not considered again. The
// coinbase is attached after the scan.
func BuildBlock(txs []Tx, set *UTXOSet, rules Rules, evHandler EventHandler) Block {
	ev := orNoEvents(evHandler)

	ev("database: BuildBlock: started: txs[%d] utxos[%d]", len(txs), set.Len())
	defer ev("database: BuildBlock: completed")

	block := Block{
		Transactions: []Tx{},
	}

	var blockSize int
	for _, tx := range txs {
		if err := CheckTransaction(tx, set); err != nil {
			ev("database: BuildBlock: tx[%s]: skipped: %s", tx, err)
			continue
		}

		size, err := tx.Size()
		if err != nil {
			ev("database: BuildBlock: tx[%s]: skipped: %s", tx, err)
			continue
		}

		if blockSize+size > rules.MaxBlockSize {
			ev("database: BuildBlock: tx[%s]: skipped: size[%d] exceeds remaining budget[%d]", tx, size, rules.MaxBlockSize-blockSize)
			continue
		}

		block.Transactions = append(block.Transactions, tx)
		blockSize += size

		// CheckTransaction guarantees every reference is present and cited
		// once, so a failure here means the set changed underneath us.
		for _, in := range tx.Vin {
			if err := set.Remove(in.Prevout.Ref()); err != nil {
				ev("database: BuildBlock: tx[%s]: ERROR: %s", tx, err)
			}
		}

		ev("database: BuildBlock: tx[%s]: accepted: size[%d] total[%d]", tx, size, blockSize)
	}

	block.Coinbase = NewCoinbaseTx(rules.Reward, rules.Beneficiary)

	return block
}
