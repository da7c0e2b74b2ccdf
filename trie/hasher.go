package trie

import (
	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"

	"github.com/soliton-labs/committer/common"
)

// TreeHashFunction is the hashing scheme of one trie kind. Binary nodes
// commit to their two children, edge nodes fold the compressed path into the
// bottom hash, and leaves hash by their own domain rule (see Leaf.Hash).
type TreeHashFunction struct {
	// Name identifies the scheme in diagnostics.
	Name string

	hash crypto.HashFn
}

// PedersenHash is the scheme of the contracts trie and of all per-contract
// storage tries.
var PedersenHash = TreeHashFunction{Name: "pedersen", hash: crypto.Pedersen}

// PoseidonHash is the scheme of the classes trie.
var PoseidonHash = TreeHashFunction{Name: "poseidon", hash: crypto.Poseidon}

// HashBinary computes H(left, right).
func (h TreeHashFunction) HashBinary(left, right common.HashOutput) common.HashOutput {
	return common.HashFromFelt(h.hash(left.AsFelt(), right.AsFelt()))
}

// HashEdge computes H(bottom, path) + length, the domain-separated encoding
// combining an edge's path and length into its commitment.
func (h TreeHashFunction) HashEdge(bottom common.HashOutput, path PathToBottom) common.HashOutput {
	pathFelt := path.Felt()
	var lengthFelt felt.Felt
	lengthFelt.SetUint64(uint64(path.Length()))
	var result felt.Felt
	result.Add(h.hash(bottom.AsFelt(), &pathFelt), &lengthFelt)
	return common.HashFromFelt(&result)
}
