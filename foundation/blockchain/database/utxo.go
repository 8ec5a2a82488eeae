package database

import "fmt"

// UTXOSet tracks which output references are currently spendable. It is
// not safe for concurrent use. It is owned by whoever is building a block
// and is never shared with the mining workers.
type UTXOSet struct {
	refs map[OutputRef]struct{}
}

// NewUTXOSet constructs a set from every output declared by the specified
// transactions. Outputs without a reference can't be cited and are skipped.
func NewUTXOSet(txs []Tx) *UTXOSet {
	set := UTXOSet{
		refs: make(map[OutputRef]struct{}),
	}

	for _, tx := range txs {
		for _, out := range tx.Vout {
			if out.Ref() == "" {
				continue
			}
			set.Insert(out.Ref())
		}
	}

	return &set
}

// Contains reports whether the reference is spendable.
func (s *UTXOSet) Contains(ref OutputRef) bool {
	_, exists := s.refs[ref]
	return exists
}

// Insert marks the reference as spendable.
func (s *UTXOSet) Insert(ref OutputRef) {
	s.refs[ref] = struct{}{}
}

// Remove consumes the reference.
func (s *UTXOSet) Remove(ref OutputRef) error {
	if _, exists := s.refs[ref]; !exists {
		return fmt.Errorf("%w: %s", ErrUTXONotFound, ref)
	}

	delete(s.refs, ref)
	return nil
}

// Len returns the number of spendable references.
func (s *UTXOSet) Len() int {
	return len(s.refs)
}

// Copy returns an independent copy of the set.
func (s *UTXOSet) Copy() *UTXOSet {
	cpy := UTXOSet{
		refs: make(map[OutputRef]struct{}, len(s.refs)),
	}
	for ref := range s.refs {
		cpy.refs[ref] = struct{}{}
	}
	return &cpy
}
