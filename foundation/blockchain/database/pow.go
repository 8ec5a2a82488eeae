package database

import (
	"context"
	"strings"
)

// checkEvery is how many nonces a worker tries between looks at its
// context. The dominant reason to stop is another worker's success, so
// checking on every attempt isn't needed.
const checkEvery = 1 << 12

// reportEvery is how many attempts pass between progress events.
const reportEvery = 1 << 22

// SearchResult is the outcome of searching one nonce range. When no nonce
// solved the block, Hash is empty and Nonce is the end of the range.
type SearchResult struct {
	Hash    string
	Nonce   uint64
	Solved  bool
	Scanned uint64
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// The hex form of the hash must start with the target. A target longer than
// a hex digest can never be matched.
func IsHashSolved(target string, hash string) bool {
	return strings.HasPrefix(hash, target)
}

// Search tries every nonce in [start, end) against the block and returns on
// the first one whose hash solves the target. The block is copied, so the
// caller's value is never changed. If the context is cancelled the search
// stops and the context error is returned with what was scanned so far.
func Search(ctx context.Context, b Block, target string, start uint64, end uint64, evHandler EventHandler) (SearchResult, error) {
	ev := orNoEvents(evHandler)

	h, err := newHasher(b.Copy())
	if err != nil {
		return SearchResult{Nonce: end}, err
	}

	var scanned uint64
	for nonce := start; nonce < end; nonce++ {
		if scanned%checkEvery == 0 && ctx.Err() != nil {
			ev("database: Search: range[%d:%d]: CANCELLED: attempts[%d]", start, end, scanned)
			return SearchResult{Nonce: nonce, Scanned: scanned}, ctx.Err()
		}
		scanned++

		if scanned%reportEvery == 0 {
			ev("database: Search: range[%d:%d]: attempts[%d]", start, end, scanned)
		}

		hash := h.hash(nonce)
		if !IsHashSolved(target, hash) {
			continue
		}

		ev("database: Search: range[%d:%d]: SOLVED: nonce[%d] hash[%s]", start, end, nonce, hash)

		result := SearchResult{
			Hash:    hash,
			Nonce:   nonce,
			Solved:  true,
			Scanned: scanned,
		}
		return result, nil
	}

	return SearchResult{Nonce: end, Scanned: scanned}, nil
}
