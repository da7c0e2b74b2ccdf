package trie

import (
	"fmt"

	"github.com/soliton-labs/committer/common"
)

// UpdatedSkeletonTree is the post-update shape of one trie. Nodes carry no
// hashes except inherited UnmodifiedSubTree markers; the leaves map holds
// the values to be hashed by the filled-tree phase.
type UpdatedSkeletonTree struct {
	nodes  map[NodeIndex]UpdatedSkeletonNode
	leaves map[NodeIndex]Leaf
}

// NodeAt returns the skeleton node at the given index, if any.
func (t *UpdatedSkeletonTree) NodeAt(index NodeIndex) (UpdatedSkeletonNode, bool) {
	node, ok := t.nodes[index]
	return node, ok
}

// NodeCount returns the number of nodes of the new tree shape.
func (t *UpdatedSkeletonTree) NodeCount() int {
	return len(t.nodes)
}

// LeafAt returns the new value of the leaf at the given index, if any.
func (t *UpdatedSkeletonTree) LeafAt(index NodeIndex) (Leaf, bool) {
	leaf, ok := t.leaves[index]
	return leaf, ok
}

// IsEmpty is true if the update left the trie without any nodes, i.e. every
// leaf was deleted. Such a trie commits to the canonical empty-tree hash.
func (t *UpdatedSkeletonTree) IsEmpty() bool {
	return len(t.nodes) == 0
}

// tempNode is the working representation of a subtree during the structural
// fold: either nothing remains of it, or it boils down to a leaf, a binary
// node, an edge, or an untouched subtree. Edges returned upward have their
// bottom node already materialized; the parent decides whether the edge
// becomes a node of its own or is extended further up.
type tempNode struct {
	kind tempKind
	path PathToBottom      // set for tempEdge
	hash common.HashOutput // set for tempUnmodified
}

type tempKind uint8

const (
	tempEmpty tempKind = iota
	tempLeaf
	tempBinary
	tempEdge
	tempUnmodified
)

type updatedSkeletonBuilder struct {
	original *OriginalSkeletonTree
	mods     LeafModifications
	tree     *UpdatedSkeletonTree
}

// BuildUpdatedSkeleton derives the new tree shape from the original
// skeleton and the given leaf modifications (empty leaves are deletions).
// The modification set may be a subset of the indices the original skeleton
// was built for, provided the construction captured previous leaf values;
// leaves filtered out as no-op updates are then reinstated unchanged.
func BuildUpdatedSkeleton(original *OriginalSkeletonTree, mods LeafModifications) (*UpdatedSkeletonTree, error) {
	builder := &updatedSkeletonBuilder{
		original: original,
		mods:     mods,
		tree: &UpdatedSkeletonTree{
			nodes:  map[NodeIndex]UpdatedSkeletonNode{},
			leaves: map[NodeIndex]Leaf{},
		},
	}
	sorted := mods.SortedIndices()
	if err := checkSortedLeafIndices(sorted); err != nil {
		return nil, err
	}
	// Bottom layer: every surviving modification becomes a leaf node.
	for index, leaf := range mods {
		if !leaf.IsEmpty() {
			builder.tree.nodes[index] = UpdatedLeafNode{}
			builder.tree.leaves[index] = leaf
		}
	}
	var root tempNode
	var err error
	if original.NodeCount() == 0 {
		root = builder.updateEmpty(RootIndex, sorted)
	} else {
		root, err = builder.updateNonempty(RootIndex, sorted)
	}
	if err != nil {
		return nil, err
	}
	switch root.kind {
	case tempEmpty:
		// Full deletion; the trie commits to the empty-tree hash.
	case tempBinary:
		builder.tree.nodes[RootIndex] = UpdatedBinaryNode{}
	case tempEdge:
		builder.tree.nodes[RootIndex] = UpdatedEdgeNode{Path: root.path}
	case tempUnmodified:
		builder.tree.nodes[RootIndex] = UnmodifiedSubTree{Hash: root.hash}
	default:
		return nil, fmt.Errorf("root folded to leaf: %w", ErrMissingRoot)
	}
	return builder.tree, nil
}

// updateEmpty builds the subtree at the given index out of nothing but new
// leaves. Deletions inside a previously empty region are no-ops.
func (b *updatedSkeletonBuilder) updateEmpty(index NodeIndex, leaves []NodeIndex) tempNode {
	if index.IsLeaf() {
		if leaf, ok := b.mods[index]; ok && !leaf.IsEmpty() {
			return tempNode{kind: tempLeaf}
		}
		return tempNode{kind: tempEmpty}
	}
	if len(leaves) == 0 {
		return tempNode{kind: tempEmpty}
	}
	left, right := splitLeaves(index, leaves)
	return b.nodeFromBinary(index,
		b.updateEmpty(index.LeftChild(), left),
		b.updateEmpty(index.RightChild(), right))
}

// updateNonempty folds the modifications into a subtree that existed before
// the update.
func (b *updatedSkeletonBuilder) updateNonempty(index NodeIndex, leaves []NodeIndex) (tempNode, error) {
	if node, ok := b.original.NodeAt(index); ok {
		switch n := node.(type) {
		case UnmodifiedSubTree:
			if len(leaves) > 0 {
				return tempNode{}, fmt.Errorf("modifications under unmodified subtree %s: %w", index, ErrMissingNode)
			}
			return tempNode{kind: tempUnmodified, hash: n.Hash}, nil
		case OriginalBinaryNode:
			left, right := splitLeaves(index, leaves)
			leftNode, err := b.updateNonempty(index.LeftChild(), left)
			if err != nil {
				return tempNode{}, err
			}
			rightNode, err := b.updateNonempty(index.RightChild(), right)
			if err != nil {
				return tempNode{}, err
			}
			return b.nodeFromBinary(index, leftNode, rightNode), nil
		case OriginalEdgeNode:
			return b.updateEdge(index, n.Path, leaves)
		}
	}
	if index.IsLeaf() {
		if leaf, ok := b.mods[index]; ok {
			if leaf.IsEmpty() {
				return tempNode{kind: tempEmpty}, nil
			}
			return tempNode{kind: tempLeaf}, nil
		}
		// The leaf was dropped from the modification set (a no-op
		// update); reinstate its captured previous value unchanged.
		if previous, ok := b.original.PreviousLeaf(index); ok {
			b.tree.nodes[index] = UpdatedLeafNode{}
			b.tree.leaves[index] = previous
			return tempNode{kind: tempLeaf}, nil
		}
		return tempNode{}, fmt.Errorf("leaf %s has neither a modification nor a previous value: %w", index, ErrMissingNode)
	}
	return tempNode{}, fmt.Errorf("index %s: %w", index, ErrMissingNode)
}

// updateEdge folds modifications into the region covered by an edge node:
// positions along the edge descend toward its bottom, positions diverging
// off it grow out of previously empty subtrees.
func (b *updatedSkeletonBuilder) updateEdge(index NodeIndex, path PathToBottom, leaves []NodeIndex) (tempNode, error) {
	left, right := splitLeaves(index, leaves)
	rest, err := path.RemoveFirstEdges(1)
	if err != nil {
		return tempNode{}, err
	}
	onEdge, offEdge := left, right
	edgeChild, otherChild := index.LeftChild(), index.RightChild()
	if path.FirstEdge() == 1 {
		onEdge, offEdge = right, left
		edgeChild, otherChild = index.RightChild(), index.LeftChild()
	}
	var bottom tempNode
	if rest.IsEmpty() {
		bottom, err = b.updateNonempty(edgeChild, onEdge)
	} else {
		bottom, err = b.updateEdge(edgeChild, rest, onEdge)
	}
	if err != nil {
		return tempNode{}, err
	}
	other := b.updateEmpty(otherChild, offEdge)
	if path.FirstEdge() == 0 {
		return b.nodeFromBinary(index, bottom, other), nil
	}
	return b.nodeFromBinary(index, other, bottom), nil
}

// nodeFromBinary folds the two child subtrees of a binary position into the
// node remaining there: a binary node if both survive, an edge toward the
// single survivor with re-derived compression, or nothing at all.
func (b *updatedSkeletonBuilder) nodeFromBinary(index NodeIndex, left, right tempNode) tempNode {
	if left.kind == tempEmpty && right.kind == tempEmpty {
		return tempNode{kind: tempEmpty}
	}
	if left.kind != tempEmpty && right.kind != tempEmpty {
		b.commitChild(index.LeftChild(), left)
		b.commitChild(index.RightChild(), right)
		return tempNode{kind: tempBinary}
	}
	if left.kind != tempEmpty {
		return b.nodeFromEdge(leftEdge, index.LeftChild(), left)
	}
	return b.nodeFromEdge(rightEdge, index.RightChild(), right)
}

// nodeFromEdge folds an edge over the given bottom subtree, extending the
// edge when the bottom is itself an edge.
func (b *updatedSkeletonBuilder) nodeFromEdge(path PathToBottom, bottomIndex NodeIndex, bottom tempNode) tempNode {
	switch bottom.kind {
	case tempEmpty:
		return tempNode{kind: tempEmpty}
	case tempLeaf:
		// The leaf node was materialized in the bottom layer.
		return tempNode{kind: tempEdge, path: path}
	case tempEdge:
		combined, err := path.Concat(bottom.path)
		if err != nil {
			// Cannot happen; the combined path never exceeds the
			// distance from this node to the leaf layer.
			panic(err)
		}
		return tempNode{kind: tempEdge, path: combined}
	case tempBinary:
		b.tree.nodes[bottomIndex] = UpdatedBinaryNode{}
		return tempNode{kind: tempEdge, path: path}
	default: // tempUnmodified
		b.tree.nodes[bottomIndex] = UnmodifiedSubTree{Hash: bottom.hash}
		return tempNode{kind: tempEdge, path: path}
	}
}

// commitChild materializes a folded subtree as the node at the given index.
func (b *updatedSkeletonBuilder) commitChild(index NodeIndex, node tempNode) {
	switch node.kind {
	case tempBinary:
		b.tree.nodes[index] = UpdatedBinaryNode{}
	case tempEdge:
		b.tree.nodes[index] = UpdatedEdgeNode{Path: node.path}
	case tempUnmodified:
		b.tree.nodes[index] = UnmodifiedSubTree{Hash: node.hash}
	case tempLeaf:
		// Already materialized in the bottom layer.
	}
}
