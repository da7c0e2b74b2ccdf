package trie

import (
	"fmt"

	"github.com/soliton-labs/committer/common"
)

// Errors of this package indicate either malformed persisted data or an
// inconsistent modification set supplied by the caller. None of them are
// retried internally; a commit observing any of them must be aborted.
const (
	// ErrMissingKey indicates that a node required by the skeleton walk is
	// absent from storage, i.e. the persisted trie is inconsistent.
	ErrMissingKey = common.ConstError("missing key in storage")

	// ErrParsing indicates persisted bytes whose layout does not match any
	// known fact encoding.
	ErrParsing = common.ConstError("malformed fact encoding")

	// ErrFeltParsing indicates a field element that could not be decoded
	// from its persisted representation.
	ErrFeltParsing = common.ConstError("malformed field element")

	// ErrLeafType indicates leaf bytes that cannot be interpreted as the
	// leaf kind expected by the enclosing trie.
	ErrLeafType = common.ConstError("unexpected leaf type")

	// ErrReadModifications indicates a caller-supplied modified index that
	// cannot be matched against the tree structure.
	ErrReadModifications = common.ConstError("invalid modified leaf index")

	// ErrMissingNode indicates an internal consistency failure: the walk
	// reached an index the skeleton holds no node for.
	ErrMissingNode = common.ConstError("missing node in skeleton")

	// ErrMissingRoot indicates a non-empty skeleton without a root entry.
	ErrMissingRoot = common.ConstError("skeleton has no root")

	// ErrSerialize indicates a filled node that could not be serialized
	// for persistence.
	ErrSerialize = common.ConstError("cannot serialize filled node")

	// ErrJoin indicates a subtree hashing task that panicked; the commit
	// holding the failed subtree must be abandoned.
	ErrJoin = common.ConstError("subtree task failed")
)

// RemoveEdgesError reports an attempt to strip more edges off a path than
// the path contains.
type RemoveEdgesError struct {
	Requested uint8
	Length    uint8
}

func (e RemoveEdgesError) Error() string {
	return fmt.Sprintf("cannot remove %d edges from a path of length %d", e.Requested, e.Length)
}

// IllegalLengthError reports a path length exceeding the tree height.
type IllegalLengthError struct {
	Length int
}

func (e IllegalLengthError) Error() string {
	return fmt.Sprintf("illegal path length %d, tree height is %d", e.Length, TreeHeight)
}

// MismatchedPathError reports path bits that do not fit the declared length.
type MismatchedPathError struct {
	Path   string
	Length uint8
}

func (e MismatchedPathError) Error() string {
	return fmt.Sprintf("path %s does not fit in %d bits", e.Path, e.Length)
}

// DoubleUpdateError reports two modifications, or two computed facts,
// targeting the same node index within one commit.
type DoubleUpdateError struct {
	Index    NodeIndex
	Existing string
}

func (e DoubleUpdateError) Error() string {
	return fmt.Sprintf("double update at index %s, existing entry %s", e.Index, e.Existing)
}

// DeletedLeafInSkeletonError reports a leaf that was marked for deletion but
// still appears as a live node in the updated skeleton.
type DeletedLeafInSkeletonError struct {
	Index NodeIndex
}

func (e DeletedLeafInSkeletonError) Error() string {
	return fmt.Sprintf("deleted leaf at index %s is still present in the skeleton", e.Index)
}
