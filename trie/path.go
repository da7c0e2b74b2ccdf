package trie

import (
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"
)

// PathToBottom describes a compressed edge: length bits of path, consumed
// from the current node down to the next explicit node. The first (topmost)
// step of the edge is the most significant of the length bits.
type PathToBottom struct {
	path   uint256.Int
	length uint8
}

// EmptyPath is the identity edge of length zero.
var EmptyPath = PathToBottom{}

// leftEdge and rightEdge are the two single-step edges.
var (
	leftEdge  = PathToBottom{length: 1}
	rightEdge = PathToBottom{path: *uint256.NewInt(1), length: 1}
)

// NewPath creates an edge path of the given bits and length. The length must
// not exceed the tree height and the bits must fit within the length.
func NewPath(path *uint256.Int, length uint8) (PathToBottom, error) {
	if length > TreeHeight {
		return PathToBottom{}, IllegalLengthError{Length: int(length)}
	}
	if path.BitLen() > int(length) {
		return PathToBottom{}, MismatchedPathError{Path: path.Hex(), Length: length}
	}
	return PathToBottom{path: *path, length: length}, nil
}

// NewPathFromUint64 creates an edge path from a small bit pattern.
func NewPathFromUint64(bits uint64, length uint8) (PathToBottom, error) {
	return NewPath(uint256.NewInt(bits), length)
}

// Length returns the number of edges the path describes.
func (p PathToBottom) Length() uint8 {
	return p.length
}

// IsEmpty is true for the identity path of length zero.
func (p PathToBottom) IsEmpty() bool {
	return p.length == 0
}

// Felt returns the path bits as a field element, as consumed by the edge
// node hash rule.
func (p PathToBottom) Felt() felt.Felt {
	bytes := p.path.Bytes32()
	var value felt.Felt
	value.SetBytes(bytes[:])
	return value
}

// Bytes returns the 32-byte big-endian representation of the path bits.
func (p PathToBottom) Bytes() [32]byte {
	return p.path.Bytes32()
}

// FirstEdge returns the direction of the path's first step: 0 descends to
// the left child, 1 to the right. The path must not be empty.
func (p PathToBottom) FirstEdge() uint8 {
	first := new(uint256.Int).Rsh(&p.path, uint(p.length-1))
	return uint8(first.Uint64() & 1)
}

// RemoveFirstEdges drops the first count edges of the path, as consumed when
// walking down from an ancestor. Dropping more edges than the path holds
// yields a RemoveEdgesError.
func (p PathToBottom) RemoveFirstEdges(count uint8) (PathToBottom, error) {
	if count > p.length {
		return PathToBottom{}, RemoveEdgesError{Requested: count, Length: p.length}
	}
	remaining := p.length - count
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(remaining))
	mask.SubUint64(mask, 1)
	return PathToBottom{
		path:   *new(uint256.Int).And(&p.path, mask),
		length: remaining,
	}, nil
}

// Concat appends the other path below this one. The combined length must
// still fit the tree height.
func (p PathToBottom) Concat(other PathToBottom) (PathToBottom, error) {
	// The sum must be taken outside uint8, or lengths near the maximum wrap
	// past the guard.
	combined := int(p.length) + int(other.length)
	if combined > TreeHeight {
		return PathToBottom{}, IllegalLengthError{Length: combined}
	}
	bits := new(uint256.Int).Lsh(&p.path, uint(other.length))
	bits.Or(bits, &other.path)
	return PathToBottom{path: *bits, length: uint8(combined)}, nil
}

// PathBetween derives the edge path leading from an ancestor down to one of
// its descendants. It fails if the alleged ancestor is not one.
func PathBetween(ancestor, descendant NodeIndex) (PathToBottom, error) {
	if descendant.value.BitLen() < ancestor.value.BitLen() {
		return PathToBottom{}, fmt.Errorf("%s is below %s: %w", ancestor, descendant, ErrReadModifications)
	}
	length := uint8(descendant.value.BitLen() - ancestor.value.BitLen())
	prefix := new(uint256.Int).Rsh(&descendant.value, uint(length))
	if !prefix.Eq(&ancestor.value) {
		return PathToBottom{}, fmt.Errorf("%s is not an ancestor of %s: %w", ancestor, descendant, ErrReadModifications)
	}
	shifted := new(uint256.Int).Lsh(&ancestor.value, uint(length))
	bits := new(uint256.Int).Sub(&descendant.value, shifted)
	return PathToBottom{path: *bits, length: length}, nil
}

func (p PathToBottom) String() string {
	if p.length == 0 {
		return "-empty-"
	}
	return fmt.Sprintf("%s : %d", p.path.Hex(), p.length)
}
