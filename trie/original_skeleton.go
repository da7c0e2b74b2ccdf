package trie

import (
	"fmt"

	"github.com/soliton-labs/committer/common"
	"github.com/soliton-labs/committer/storage"
)

// SkeletonConfig selects the trie-specific behavior of skeleton
// construction.
type SkeletonConfig struct {
	// Keys is the key context of the trie being read.
	Keys KeyContext

	// DeletedIndices marks the modified indices that are deletions. A
	// subtree all of whose modifications are deletions may become empty,
	// in which case its sibling must be read as well so that the update
	// phase can re-derive path compression across the collapsing parent.
	DeletedIndices map[NodeIndex]bool

	// ComparePreviousLeaves requests the previous values of modified
	// leaves that already exist in the tree. The contracts trie needs
	// them to carry unchanged contract-state fields over; elsewhere they
	// enable skipping no-op updates.
	ComparePreviousLeaves bool

	// DeserializeLeaf restores this trie's leaf kind; required when
	// ComparePreviousLeaves is set.
	DeserializeLeaf LeafDeserializer
}

// OriginalSkeletonTree is the pre-update structural view of one trie,
// holding exactly the nodes on the paths from the root to the modified
// leaves. Construction reads O(modified leaves × height) storage entries,
// independent of the total trie size.
type OriginalSkeletonTree struct {
	nodes          map[NodeIndex]OriginalSkeletonNode
	sortedIndices  []NodeIndex
	previousLeaves map[NodeIndex]Leaf
}

// NodeAt returns the skeleton node at the given index, if any.
func (t *OriginalSkeletonTree) NodeAt(index NodeIndex) (OriginalSkeletonNode, bool) {
	node, ok := t.nodes[index]
	return node, ok
}

// NodeCount returns the number of explicitly represented nodes.
func (t *OriginalSkeletonTree) NodeCount() int {
	return len(t.nodes)
}

// SortedIndices returns the modified leaf indices the skeleton was built
// for, in ascending order.
func (t *OriginalSkeletonTree) SortedIndices() []NodeIndex {
	return t.sortedIndices
}

// PreviousLeaf returns the pre-update value of the given modified leaf, if
// it was captured during construction.
func (t *OriginalSkeletonTree) PreviousLeaf(index NodeIndex) (Leaf, bool) {
	leaf, ok := t.previousLeaves[index]
	return leaf, ok
}

// pendingSubTree is one unit of the level-by-level walk: a subtree whose
// root fact still has to be read, together with the modified leaf indices
// falling under it. The leaves list may be empty for a sibling read forced
// by deletions on the other side.
type pendingSubTree struct {
	index  NodeIndex
	hash   common.HashOutput
	leaves []NodeIndex
}

// BuildOriginalSkeleton reconstructs the minimal pre-update view of the trie
// with the given root supporting the given sorted, distinct modified leaf
// indices. Facts are read level by level with one batched lookup per level.
func BuildOriginalSkeleton(
	store storage.Storage,
	root common.HashOutput,
	indices []NodeIndex,
	cfg SkeletonConfig,
	monitor common.Monitor,
) (*OriginalSkeletonTree, error) {
	if err := checkSortedLeafIndices(indices); err != nil {
		return nil, err
	}
	tree := &OriginalSkeletonTree{
		nodes:          map[NodeIndex]OriginalSkeletonNode{},
		sortedIndices:  indices,
		previousLeaves: map[NodeIndex]Leaf{},
	}
	if root.IsEmpty() || len(indices) == 0 {
		// An empty tree holds no facts; every modification lands on a
		// previously empty position.
		return tree, nil
	}
	current := []pendingSubTree{{index: RootIndex, hash: root, leaves: indices}}
	for len(current) > 0 {
		var inner, leafRow []pendingSubTree
		for _, pending := range current {
			if pending.index.IsLeaf() {
				leafRow = append(leafRow, pending)
			} else {
				inner = append(inner, pending)
			}
		}
		if err := readPreviousLeaves(store, leafRow, cfg, tree, monitor); err != nil {
			return nil, err
		}
		next, err := expandInnerRow(store, inner, cfg, tree, monitor)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return tree, nil
}

// readPreviousLeaves captures the pre-update values of the modified leaves
// that exist in the tree, if the configuration asks for them.
func readPreviousLeaves(
	store storage.Storage,
	leafRow []pendingSubTree,
	cfg SkeletonConfig,
	tree *OriginalSkeletonTree,
	monitor common.Monitor,
) error {
	if len(leafRow) == 0 || !cfg.ComparePreviousLeaves {
		return nil
	}
	if cfg.DeserializeLeaf == nil {
		return fmt.Errorf("previous leaves requested without a leaf deserializer: %w", ErrReadModifications)
	}
	keys := make([][]byte, len(leafRow))
	for i, pending := range leafRow {
		keys[i] = cfg.Keys.FactKey(pending.hash)
	}
	monitor.StorageReads(len(keys))
	values, err := store.MGet(keys)
	if err != nil {
		return fmt.Errorf("reading previous leaves: %w", err)
	}
	for i, pending := range leafRow {
		if values[i] == nil {
			return fmt.Errorf("previous leaf %s (hash %s): %w", pending.index, pending.hash.String(), ErrMissingKey)
		}
		leaf, err := cfg.DeserializeLeaf(values[i])
		if err != nil {
			return fmt.Errorf("previous leaf %s: %w", pending.index, err)
		}
		tree.previousLeaves[pending.index] = leaf
	}
	return nil
}

// expandInnerRow reads and classifies one level of inner-node facts,
// returning the subtrees to visit on the next level.
func expandInnerRow(
	store storage.Storage,
	inner []pendingSubTree,
	cfg SkeletonConfig,
	tree *OriginalSkeletonTree,
	monitor common.Monitor,
) ([]pendingSubTree, error) {
	if len(inner) == 0 {
		return nil, nil
	}
	keys := make([][]byte, len(inner))
	for i, pending := range inner {
		keys[i] = cfg.Keys.FactKey(pending.hash)
	}
	monitor.StorageReads(len(keys))
	values, err := store.MGet(keys)
	if err != nil {
		return nil, fmt.Errorf("reading skeleton nodes: %w", err)
	}
	var next []pendingSubTree
	for i, pending := range inner {
		if values[i] == nil {
			return nil, fmt.Errorf("node %s (hash %s): %w", pending.index, pending.hash.String(), ErrMissingKey)
		}
		data, err := DeserializeInnerNodeFact(values[i])
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", pending.index, err)
		}
		switch fact := data.(type) {
		case BinaryData:
			tree.nodes[pending.index] = OriginalBinaryNode{}
			left, right := splitLeaves(pending.index, pending.leaves)
			next = appendChild(next, tree, pending.index.LeftChild(), fact.Left, left, right, cfg)
			next = appendChild(next, tree, pending.index.RightChild(), fact.Right, right, left, cfg)
		case EdgeData:
			tree.nodes[pending.index] = OriginalEdgeNode{Path: fact.Path}
			bottom := pending.index.ComputeBottomIndex(fact.Path)
			below := leavesWithin(bottom, pending.leaves)
			if len(below) == 0 {
				// Only previously empty positions diverge off this edge;
				// the committed subtree below stays untouched.
				tree.nodes[bottom] = UnmodifiedSubTree{Hash: fact.Bottom}
			} else {
				next = append(next, pendingSubTree{index: bottom, hash: fact.Bottom, leaves: below})
			}
		}
	}
	return next, nil
}

// appendChild schedules one child of a binary node for the next level, or
// collapses it into an UnmodifiedSubTree when nothing below it changes. A
// child without modifications of its own is still read when its sibling
// might be emptied by deletions, since the parent would then collapse into
// an edge whose compression depends on this child's actual structure.
func appendChild(
	next []pendingSubTree,
	tree *OriginalSkeletonTree,
	child NodeIndex,
	hash common.HashOutput,
	leaves []NodeIndex,
	siblingLeaves []NodeIndex,
	cfg SkeletonConfig,
) []pendingSubTree {
	if len(leaves) > 0 {
		return append(next, pendingSubTree{index: child, hash: hash, leaves: leaves})
	}
	if len(siblingLeaves) > 0 && allDeleted(siblingLeaves, cfg.DeletedIndices) && !child.IsLeaf() {
		return append(next, pendingSubTree{index: child, hash: hash})
	}
	tree.nodes[child] = UnmodifiedSubTree{Hash: hash}
	return next
}

func allDeleted(leaves []NodeIndex, deleted map[NodeIndex]bool) bool {
	for _, leaf := range leaves {
		if !deleted[leaf] {
			return false
		}
	}
	return true
}
