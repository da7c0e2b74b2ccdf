package common

import (
	"github.com/NethermindEth/juno/core/felt"
)

// HashOutput wraps a field element to mark it as the output of a tree hash
// function. The zero value is the canonical hash of an empty subtree, so a
// default-initialized HashOutput denotes "nothing below this point".
type HashOutput struct {
	felt.Felt
}

// EmptyTreeRoot is the canonical commitment of a trie without any leaves.
var EmptyTreeRoot = HashOutput{}

// HashFromFelt wraps the given field element as a hash value.
func HashFromFelt(value *felt.Felt) HashOutput {
	return HashOutput{Felt: *value}
}

// HashFromBytes interprets the given big-endian bytes as a hash value.
// Inputs longer than the field modulus are reduced.
func HashFromBytes(data []byte) HashOutput {
	var h HashOutput
	h.Felt.SetBytes(data)
	return h
}

// AsFelt grants access to the hash's underlying field element.
func (h *HashOutput) AsFelt() *felt.Felt {
	return &h.Felt
}

// IsEmpty is true if the hash is the canonical empty-subtree hash.
func (h HashOutput) IsEmpty() bool {
	return h.Felt.IsZero()
}

// Equal compares two hash values for equality.
func (h HashOutput) Equal(other HashOutput) bool {
	return h.Felt.Equal(&other.Felt)
}

// Bytes returns the 32-byte big-endian representation of the hash.
func (h HashOutput) Bytes() [32]byte {
	return h.Felt.Bytes()
}
