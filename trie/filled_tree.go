package trie

import (
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/soliton-labs/committer/common"
)

// parallelHashDepth bounds the depth down to which binary children are
// hashed concurrently. Below it the subtrees are small enough that goroutine
// handoff costs more than it saves.
const parallelHashDepth = 8

// FilledTree is a fully hashed tree: every node created or re-rooted by the
// update, together with the resulting root hash. Unmodified subtrees
// contribute their hash but are not re-emitted.
type FilledTree struct {
	root  common.HashOutput
	nodes map[NodeIndex]FilledNode
}

// RootHash returns the commitment of the tree.
func (t *FilledTree) RootHash() common.HashOutput {
	return t.root
}

// NodeAt returns the filled node at the given index, if any.
func (t *FilledTree) NodeAt(index NodeIndex) (FilledNode, bool) {
	node, ok := t.nodes[index]
	return node, ok
}

// NodeCount returns the number of newly computed nodes.
func (t *FilledTree) NodeCount() int {
	return len(t.nodes)
}

// WriteFacts serializes every filled node into out, keyed by its fact key
// in the given trie namespace. Identical nodes map to identical facts, so
// collisions across trees are harmless.
func (t *FilledTree) WriteFacts(keys KeyContext, out map[string][]byte) error {
	for _, node := range t.nodes {
		fact, err := node.Fact()
		if err != nil {
			return err
		}
		out[string(keys.FactKey(node.Hash))] = fact
	}
	return nil
}

type filledTreeBuilder struct {
	skeleton *UpdatedSkeletonTree
	hash     TreeHashFunction
	monitor  common.Monitor

	mu    sync.Mutex
	nodes map[NodeIndex]FilledNode
}

// FillTree computes every hash the updated skeleton left open and returns
// the resulting tree. Binary siblings near the root are hashed in parallel.
func FillTree(skeleton *UpdatedSkeletonTree, hash TreeHashFunction, monitor common.Monitor) (*FilledTree, error) {
	if skeleton.IsEmpty() {
		return &FilledTree{root: common.EmptyTreeRoot, nodes: map[NodeIndex]FilledNode{}}, nil
	}
	if _, ok := skeleton.NodeAt(RootIndex); !ok {
		return nil, fmt.Errorf("nonempty skeleton without a root node: %w", ErrMissingRoot)
	}
	builder := &filledTreeBuilder{
		skeleton: skeleton,
		hash:     hash,
		monitor:  monitor,
		nodes:    map[NodeIndex]FilledNode{},
	}
	root, err := builder.compute(RootIndex, 0)
	if err != nil {
		return nil, err
	}
	monitor.NodesComputed(len(builder.nodes))
	return &FilledTree{root: root, nodes: builder.nodes}, nil
}

// compute hashes the subtree rooted at the given index and records every
// node it creates. depth is the distance from the tree root, used to decide
// whether binary children still warrant their own goroutine.
func (b *filledTreeBuilder) compute(index NodeIndex, depth int) (common.HashOutput, error) {
	node, ok := b.skeleton.NodeAt(index)
	if !ok {
		return common.HashOutput{}, fmt.Errorf("index %s: %w", index, ErrMissingNode)
	}
	switch n := node.(type) {
	case UnmodifiedSubTree:
		// Nothing below changed; reuse the hash without re-emitting.
		return n.Hash, nil
	case UpdatedLeafNode:
		leaf, ok := b.skeleton.LeafAt(index)
		if !ok {
			return common.HashOutput{}, DeletedLeafInSkeletonError{Index: index}
		}
		hash := leaf.Hash()
		return hash, b.record(index, FilledNode{Hash: hash, Data: LeafData{Leaf: leaf}})
	case UpdatedBinaryNode:
		left, right, err := b.computeChildren(index, depth)
		if err != nil {
			return common.HashOutput{}, err
		}
		hash := b.hash.HashBinary(left, right)
		return hash, b.record(index, FilledNode{Hash: hash, Data: BinaryData{Left: left, Right: right}})
	case UpdatedEdgeNode:
		bottom, err := b.compute(index.ComputeBottomIndex(n.Path), depth+int(n.Path.Length()))
		if err != nil {
			return common.HashOutput{}, err
		}
		hash := b.hash.HashEdge(bottom, n.Path)
		return hash, b.record(index, FilledNode{Hash: hash, Data: EdgeData{Bottom: bottom, Path: n.Path}})
	default:
		return common.HashOutput{}, fmt.Errorf("index %s holds unexpected node %T: %w", index, node, ErrMissingNode)
	}
}

// computeChildren hashes the two children of a binary node, concurrently
// near the root and sequentially below parallelHashDepth.
func (b *filledTreeBuilder) computeChildren(index NodeIndex, depth int) (left, right common.HashOutput, err error) {
	if depth >= parallelHashDepth {
		if left, err = b.compute(index.LeftChild(), depth+1); err != nil {
			return
		}
		right, err = b.compute(index.RightChild(), depth+1)
		return
	}
	workers := pool.New().WithErrors()
	workers.Go(func() (err error) {
		defer recoverToError(&err)
		left, err = b.compute(index.LeftChild(), depth+1)
		return
	})
	workers.Go(func() (err error) {
		defer recoverToError(&err)
		right, err = b.compute(index.RightChild(), depth+1)
		return
	})
	err = workers.Wait()
	return
}

// recoverToError converts a panic in a hashing worker into an error so a
// single poisoned subtree fails the computation instead of the process.
func recoverToError(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("hash worker panicked: %v: %w", r, ErrJoin)
	}
}

func (b *filledTreeBuilder) record(index NodeIndex, node FilledNode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.nodes[index]; ok && !existing.Hash.Equal(node.Hash) {
		return DoubleUpdateError{Index: index, Existing: existing.Hash.String()}
	}
	b.nodes[index] = node
	return nil
}
