package trie

import (
	"fmt"
	"sort"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"
)

// TreeHeight is the height of all tries committed by this package. Leaves
// live at this exact depth; there are no leaves on inner levels.
const TreeHeight = 251

// NodeIndex identifies a node's position in a conceptually complete binary
// tree of height TreeHeight. The index is an integer whose most significant
// set bit marks the node's depth: the root is 1, the children of a node i
// are 2i and 2i+1, and the leaf holding key k is (1 << TreeHeight) + k.
// Indices therefore occupy up to 252 bits.
type NodeIndex struct {
	value uint256.Int
}

// RootIndex is the index of the tree root.
var RootIndex = NodeIndexFromUint64(1)

// firstLeaf is the index of the leftmost leaf, 1 << TreeHeight.
var firstLeaf = *new(uint256.Int).Lsh(uint256.NewInt(1), TreeHeight)

// firstOutside is the first value beyond the leaf layer, 1 << (TreeHeight+1).
var firstOutside = *new(uint256.Int).Lsh(uint256.NewInt(1), TreeHeight+1)

// NodeIndexFromUint64 creates the index with the given small value.
func NodeIndexFromUint64(value uint64) NodeIndex {
	return NodeIndex{value: *uint256.NewInt(value)}
}

// NodeIndexFromFelt creates the index with the value of the given field
// element.
func NodeIndexFromFelt(value *felt.Felt) NodeIndex {
	bytes := value.Bytes()
	return NodeIndex{value: *new(uint256.Int).SetBytes(bytes[:])}
}

// LeafIndexOf returns the index of the leaf addressed by the given trie key
// (a contract address, a class hash, or a storage key). Keys must be below
// the leaf layer capacity of 2^TreeHeight; felts reach slightly beyond it,
// and a key with the top bit set would alias the leaf of key - 2^TreeHeight.
func LeafIndexOf(key *felt.Felt) (NodeIndex, error) {
	index := NodeIndexFromFelt(key)
	if index.value.BitLen() > TreeHeight {
		return NodeIndex{}, fmt.Errorf("key %s exceeds the leaf key space: %w", key, ErrReadModifications)
	}
	index.value.Or(&index.value, &firstLeaf)
	return index, nil
}

// Depth returns the node's depth; the root is at depth 0, leaves are at
// depth TreeHeight.
func (n NodeIndex) Depth() uint8 {
	return uint8(n.value.BitLen() - 1)
}

// IsLeaf is true if the index addresses a position on the leaf layer.
func (n NodeIndex) IsLeaf() bool {
	return n.value.Cmp(&firstLeaf) >= 0 && n.value.Cmp(&firstOutside) < 0
}

// IsRoot is true if the index addresses the tree root.
func (n NodeIndex) IsRoot() bool {
	return n.value.Eq(uint256.NewInt(1))
}

// LeftChild returns the index of the node's left child.
func (n NodeIndex) LeftChild() NodeIndex {
	return NodeIndex{value: *new(uint256.Int).Lsh(&n.value, 1)}
}

// RightChild returns the index of the node's right child.
func (n NodeIndex) RightChild() NodeIndex {
	child := n.LeftChild()
	child.value.Or(&child.value, uint256.NewInt(1))
	return child
}

// Parent returns the index of the node's parent. The parent of the root is
// the root itself.
func (n NodeIndex) Parent() NodeIndex {
	if n.IsRoot() {
		return n
	}
	return NodeIndex{value: *new(uint256.Int).Rsh(&n.value, 1)}
}

// ComputeBottomIndex derives the index of the descendant reached by
// following the given edge path down from this node.
func (n NodeIndex) ComputeBottomIndex(path PathToBottom) NodeIndex {
	bottom := new(uint256.Int).Lsh(&n.value, uint(path.length))
	bottom.Or(bottom, &path.path)
	return NodeIndex{value: *bottom}
}

// Felt returns the index value as a field element. Only defined for indices
// within the tree, which all fit the field.
func (n NodeIndex) Felt() felt.Felt {
	bytes := n.value.Bytes32()
	var value felt.Felt
	value.SetBytes(bytes[:])
	return value
}

// TryContractAddress re-derives the trie key (e.g. a contract address) this
// leaf index stands for. It fails for indices outside the leaf layer.
func (n NodeIndex) TryContractAddress() (felt.Felt, error) {
	if !n.IsLeaf() {
		return felt.Felt{}, fmt.Errorf("index %s is not a leaf index: %w", n, ErrReadModifications)
	}
	key := new(uint256.Int).Sub(&n.value, &firstLeaf)
	bytes := key.Bytes32()
	var address felt.Felt
	address.SetBytes(bytes[:])
	return address, nil
}

// Cmp orders indices by their integer value. On a single tree level this is
// the left-to-right order of the nodes.
func (n NodeIndex) Cmp(other NodeIndex) int {
	return n.value.Cmp(&other.value)
}

// Equal compares two indices for equality.
func (n NodeIndex) Equal(other NodeIndex) bool {
	return n.value.Eq(&other.value)
}

func (n NodeIndex) String() string {
	return n.value.Hex()
}

// SortNodeIndices sorts the given indices in place in ascending order and
// returns the slice for convenience.
func SortNodeIndices(indices []NodeIndex) []NodeIndex {
	sort.Slice(indices, func(i, j int) bool {
		return indices[i].Cmp(indices[j]) < 0
	})
	return indices
}

// subTreeLowerBound returns the index of the leftmost leaf in the subtree
// rooted at the given index.
func subTreeLowerBound(root NodeIndex) NodeIndex {
	shift := uint(TreeHeight - root.Depth())
	return NodeIndex{value: *new(uint256.Int).Lsh(&root.value, shift)}
}

// subTreeUpperBound returns the first leaf index beyond the subtree rooted
// at the given index (an exclusive bound).
func subTreeUpperBound(root NodeIndex) NodeIndex {
	shift := uint(TreeHeight - root.Depth())
	beyond := new(uint256.Int).AddUint64(&root.value, 1)
	return NodeIndex{value: *beyond.Lsh(beyond, shift)}
}

// splitLeaves partitions the sorted leaf indices of the subtree rooted at
// parent into the ones under its left and its right child. Because all
// leaves live on the same level, each partition is a contiguous sub-slice.
func splitLeaves(parent NodeIndex, indices []NodeIndex) ([]NodeIndex, []NodeIndex) {
	bound := subTreeLowerBound(parent.RightChild())
	split := sort.Search(len(indices), func(i int) bool {
		return indices[i].Cmp(bound) >= 0
	})
	return indices[:split], indices[split:]
}

// leavesWithin narrows the sorted leaf indices down to the ones falling
// under the subtree rooted at the given index.
func leavesWithin(root NodeIndex, indices []NodeIndex) []NodeIndex {
	lower := subTreeLowerBound(root)
	upper := subTreeUpperBound(root)
	from := sort.Search(len(indices), func(i int) bool {
		return indices[i].Cmp(lower) >= 0
	})
	to := sort.Search(len(indices), func(i int) bool {
		return indices[i].Cmp(upper) >= 0
	})
	return indices[from:to]
}

// checkSortedLeafIndices verifies that the given indices are strictly
// ascending and all on the leaf layer.
func checkSortedLeafIndices(indices []NodeIndex) error {
	for i, index := range indices {
		if !index.IsLeaf() {
			return fmt.Errorf("modified index %s is not a leaf index: %w", index, ErrReadModifications)
		}
		if i > 0 && indices[i-1].Cmp(index) >= 0 {
			return fmt.Errorf("modified indices not strictly ascending at %s: %w", index, ErrReadModifications)
		}
	}
	return nil
}
