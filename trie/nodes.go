package trie

import (
	"github.com/soliton-labs/committer/common"
)

// ----------------------------------------------------------------------------
//                           Original Skeleton Nodes
// ----------------------------------------------------------------------------

// OriginalSkeletonNode is a read-only view of a node of the pre-update tree.
// Only the nodes on root-to-modified-leaf paths are represented explicitly;
// everything else collapses into UnmodifiedSubTree markers.
type OriginalSkeletonNode interface {
	isOriginalSkeletonNode()
}

// OriginalBinaryNode marks a pre-update node with two explicit children.
type OriginalBinaryNode struct{}

// OriginalEdgeNode marks a pre-update node holding a compressed edge.
type OriginalEdgeNode struct {
	Path PathToBottom
}

// UnmodifiedSubTree stands for an entire subtree no modification touches.
// Only its committed hash is retained; the subtree is never expanded from
// storage, which is what bounds skeleton I/O by the number of modified
// leaves rather than the tree size.
type UnmodifiedSubTree struct {
	Hash common.HashOutput
}

func (OriginalBinaryNode) isOriginalSkeletonNode() {}
func (OriginalEdgeNode) isOriginalSkeletonNode()   {}
func (UnmodifiedSubTree) isOriginalSkeletonNode()  {}

// ----------------------------------------------------------------------------
//                           Updated Skeleton Nodes
// ----------------------------------------------------------------------------

// UpdatedSkeletonNode is a node of the post-update tree shape. No hashes are
// assigned yet, except the ones inherited verbatim by UnmodifiedSubTree.
type UpdatedSkeletonNode interface {
	isUpdatedSkeletonNode()
}

// UpdatedBinaryNode marks a post-update node with two explicit children.
type UpdatedBinaryNode struct{}

// UpdatedEdgeNode marks a post-update node holding a compressed edge.
type UpdatedEdgeNode struct {
	Path PathToBottom
}

// UpdatedLeafNode marks a position known to hold a leaf value that must be
// hashed in the filled-tree phase.
type UpdatedLeafNode struct{}

func (UpdatedBinaryNode) isUpdatedSkeletonNode() {}
func (UpdatedEdgeNode) isUpdatedSkeletonNode()   {}
func (UpdatedLeafNode) isUpdatedSkeletonNode()   {}
func (UnmodifiedSubTree) isUpdatedSkeletonNode() {}

// ----------------------------------------------------------------------------
//                               Filled Nodes
// ----------------------------------------------------------------------------

// NodeData is the payload of a filled node, with child references resolved
// to hashes.
type NodeData interface {
	isNodeData()
}

// BinaryData references the node's two fully hashed children.
type BinaryData struct {
	Left  common.HashOutput
	Right common.HashOutput
}

// EdgeData references the fully hashed node at the bottom of an edge.
type EdgeData struct {
	Bottom common.HashOutput
	Path   PathToBottom
}

// LeafData holds a leaf value.
type LeafData struct {
	Leaf Leaf
}

func (BinaryData) isNodeData() {}
func (EdgeData) isNodeData()   {}
func (LeafData) isNodeData()   {}

// FilledNode is a final, persistable node of the post-update tree. One
// instance exists per node whose hash changed; unmodified subtrees are not
// re-emitted.
type FilledNode struct {
	Hash common.HashOutput
	Data NodeData
}
