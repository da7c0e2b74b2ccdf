package trie

import (
	"golang.org/x/exp/maps"
)

// LeafModifications is the set of leaf changes of one trie within one
// commit, keyed by leaf index. An empty leaf value marks a deletion.
type LeafModifications map[NodeIndex]Leaf

// NewLeafModifications creates an empty modification set.
func NewLeafModifications() LeafModifications {
	return LeafModifications{}
}

// Add registers a modification. Registering a second modification for the
// same index fails with a DoubleUpdateError reporting the existing entry.
func (m LeafModifications) Add(index NodeIndex, leaf Leaf) error {
	if existing, ok := m[index]; ok {
		return DoubleUpdateError{Index: index, Existing: existing.String()}
	}
	m[index] = leaf
	return nil
}

// SortedIndices returns the modified leaf indices in ascending order.
func (m LeafModifications) SortedIndices() []NodeIndex {
	return SortNodeIndices(maps.Keys(m))
}

// Deletions returns the subset of indices whose modification is a deletion.
func (m LeafModifications) Deletions() map[NodeIndex]bool {
	deleted := map[NodeIndex]bool{}
	for index, leaf := range m {
		if leaf.IsEmpty() {
			deleted[index] = true
		}
	}
	return deleted
}
