package trie

import (
	"errors"
	"testing"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/soliton-labs/committer/common"
)

func emptySkeleton() *OriginalSkeletonTree {
	return &OriginalSkeletonTree{
		nodes:          map[NodeIndex]OriginalSkeletonNode{},
		previousLeaves: map[NodeIndex]Leaf{},
	}
}

func storageLeaf(value uint64) StorageValue {
	return StorageValue{Value: *new(felt.Felt).SetUint64(value)}
}

func TestBuildUpdatedSkeleton_SingleInsertIntoEmptyTree(t *testing.T) {
	index := leafOf(t, 0xCAFE)
	mods := LeafModifications{index: storageLeaf(1)}

	updated, err := BuildUpdatedSkeleton(emptySkeleton(), mods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, ok := updated.NodeAt(RootIndex)
	if !ok {
		t.Fatalf("updated skeleton has no root")
	}
	edge, ok := root.(UpdatedEdgeNode)
	if !ok {
		t.Fatalf("a single leaf should hang off a root edge, got %T", root)
	}
	if got, want := edge.Path.Length(), uint8(TreeHeight); got != want {
		t.Errorf("wrong edge length, got %d, want %d", got, want)
	}
	want, err := PathBetween(RootIndex, index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Path != want {
		t.Errorf("wrong edge path, got %s, want %s", edge.Path, want)
	}
	if _, ok := updated.LeafAt(index); !ok {
		t.Errorf("the inserted leaf value is missing")
	}
}

func TestBuildUpdatedSkeleton_SiblingInsertsFormBinaryUnderEdge(t *testing.T) {
	left := leafOf(t, 0)
	right := leafOf(t, 1)
	mods := LeafModifications{left: storageLeaf(10), right: storageLeaf(20)}

	updated, err := BuildUpdatedSkeleton(emptySkeleton(), mods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, _ := updated.NodeAt(RootIndex)
	edge, ok := root.(UpdatedEdgeNode)
	if !ok {
		t.Fatalf("expected a root edge, got %T", root)
	}
	if got, want := edge.Path.Length(), uint8(TreeHeight-1); got != want {
		t.Errorf("wrong edge length, got %d, want %d", got, want)
	}
	bottom := RootIndex.ComputeBottomIndex(edge.Path)
	if node, _ := updated.NodeAt(bottom); node != (UpdatedBinaryNode{}) {
		t.Errorf("expected a binary node below the edge, got %T", node)
	}
	if got, want := updated.NodeCount(), 4; got != want {
		t.Errorf("wrong node count, got %d, want %d", got, want)
	}
}

// twoLeafSkeleton is the pre-update shape of a tree holding the keys 0 and
// 1: a root edge of 250 zero bits down to a binary node whose children are
// the two leaves. The left leaf carries no modification, so the skeleton
// holds it as an unmodified subtree with the given hash.
func twoLeafSkeleton(t *testing.T, leftHash common.HashOutput) (skeleton *OriginalSkeletonTree, left, right NodeIndex) {
	t.Helper()
	path, err := NewPathFromUint64(0, TreeHeight-1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	binary := RootIndex.ComputeBottomIndex(path)
	left, right = binary.LeftChild(), binary.RightChild()
	skeleton = emptySkeleton()
	skeleton.nodes[RootIndex] = OriginalEdgeNode{Path: path}
	skeleton.nodes[binary] = OriginalBinaryNode{}
	skeleton.nodes[left] = UnmodifiedSubTree{Hash: leftHash}
	return skeleton, left, right
}

func TestBuildUpdatedSkeleton_DeletionCollapsesBinaryIntoLongerEdge(t *testing.T) {
	leftHash := common.HashFromFelt(new(felt.Felt).SetUint64(111))
	skeleton, left, right := twoLeafSkeleton(t, leftHash)
	mods := LeafModifications{right: storageLeaf(0)} // deletion

	updated, err := BuildUpdatedSkeleton(skeleton, mods)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, _ := updated.NodeAt(RootIndex)
	edge, ok := root.(UpdatedEdgeNode)
	if !ok {
		t.Fatalf("expected a root edge after the collapse, got %T", root)
	}
	if got, want := edge.Path.Length(), uint8(TreeHeight); got != want {
		t.Errorf("the merged edge should span the full height, got %d, want %d", got, want)
	}
	if node, _ := updated.NodeAt(left); node != (UnmodifiedSubTree{Hash: leftHash}) {
		t.Errorf("the surviving leaf should stay an unmodified subtree, got %v", node)
	}
	if got, want := updated.NodeCount(), 2; got != want {
		t.Errorf("wrong node count, got %d, want %d", got, want)
	}
}

func TestBuildUpdatedSkeleton_DeletingEveryLeafEmptiesTheTree(t *testing.T) {
	index := leafOf(t, 0xD00D)
	path, err := PathBetween(RootIndex, index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	skeleton := emptySkeleton()
	skeleton.nodes[RootIndex] = OriginalEdgeNode{Path: path}

	updated, err := BuildUpdatedSkeleton(skeleton, LeafModifications{index: storageLeaf(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.IsEmpty() {
		t.Errorf("deleting the only leaf should empty the tree, %d nodes remain", updated.NodeCount())
	}
}

func TestBuildUpdatedSkeleton_UpdateKeepsTheEdgeShape(t *testing.T) {
	index := leafOf(t, 0xF00)
	path, err := PathBetween(RootIndex, index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	skeleton := emptySkeleton()
	skeleton.nodes[RootIndex] = OriginalEdgeNode{Path: path}

	updated, err := BuildUpdatedSkeleton(skeleton, LeafModifications{index: storageLeaf(77)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, _ := updated.NodeAt(RootIndex)
	if edge, ok := root.(UpdatedEdgeNode); !ok || edge.Path != path {
		t.Errorf("the edge shape should survive a value update, got %v", root)
	}
	if leaf, ok := updated.LeafAt(index); !ok || leaf != storageLeaf(77) {
		t.Errorf("wrong updated leaf value: %v", leaf)
	}
}

func TestBuildUpdatedSkeleton_ReinstatesFilteredLeavesFromPreviousValues(t *testing.T) {
	index := leafOf(t, 0x42)
	path, err := PathBetween(RootIndex, index)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	skeleton := emptySkeleton()
	skeleton.nodes[RootIndex] = OriginalEdgeNode{Path: path}
	skeleton.previousLeaves[index] = storageLeaf(5)

	// The leaf was visited during skeleton construction but its
	// modification turned out to be a no-op and was dropped.
	updated, err := BuildUpdatedSkeleton(skeleton, LeafModifications{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leaf, ok := updated.LeafAt(index); !ok || leaf != storageLeaf(5) {
		t.Errorf("the previous value should be reinstated, got %v", leaf)
	}
}

func TestBuildUpdatedSkeleton_MissingNodesAreReported(t *testing.T) {
	skeleton := emptySkeleton()
	skeleton.nodes[RootIndex] = OriginalBinaryNode{}

	_, err := BuildUpdatedSkeleton(skeleton, LeafModifications{
		leafOf(t, 1): storageLeaf(1),
	})
	if !errors.Is(err, ErrMissingNode) {
		t.Errorf("expected a missing-node error, got %v", err)
	}
}

func TestBuildUpdatedSkeleton_RejectsNonLeafModificationIndices(t *testing.T) {
	_, err := BuildUpdatedSkeleton(emptySkeleton(), LeafModifications{
		NodeIndexFromUint64(5): storageLeaf(1),
	})
	if !errors.Is(err, ErrReadModifications) {
		t.Errorf("expected an index error, got %v", err)
	}
}
