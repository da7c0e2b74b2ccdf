package trie

import (
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"

	"github.com/soliton-labs/committer/common"
	"github.com/soliton-labs/committer/storage"
)

// Facts are the persisted form of filled nodes, addressed by content hash
// under a per-trie key prefix. Binary and edge facts use fixed-size binary
// layouts; leaf facts use the layout of their leaf kind. The two inner-node
// layouts are distinguished by their size alone.
const (
	binaryFactSize = 64 // left hash ++ right hash
	edgeFactSize   = 65 // bottom hash ++ path ++ length byte
)

// Fact serializes the node's payload for persistence.
func (n *FilledNode) Fact() ([]byte, error) {
	switch data := n.Data.(type) {
	case BinaryData:
		fact := make([]byte, 0, binaryFactSize)
		left, right := data.Left.Bytes(), data.Right.Bytes()
		fact = append(fact, left[:]...)
		return append(fact, right[:]...), nil
	case EdgeData:
		fact := make([]byte, 0, edgeFactSize)
		bottom, path := data.Bottom.Bytes(), data.Path.Bytes()
		fact = append(fact, bottom[:]...)
		fact = append(fact, path[:]...)
		return append(fact, data.Path.Length()), nil
	case LeafData:
		fact, err := data.Leaf.Serialize()
		if err != nil {
			return nil, fmt.Errorf("leaf %s: %w", data.Leaf, ErrSerialize)
		}
		return fact, nil
	}
	return nil, fmt.Errorf("unknown node data %T: %w", n.Data, ErrSerialize)
}

// DeserializeInnerNodeFact decodes a persisted binary or edge fact. Leaf
// facts are decoded by their trie's leaf deserializer instead.
func DeserializeInnerNodeFact(data []byte) (NodeData, error) {
	switch len(data) {
	case binaryFactSize:
		return BinaryData{
			Left:  common.HashFromBytes(data[:32]),
			Right: common.HashFromBytes(data[32:64]),
		}, nil
	case edgeFactSize:
		path, err := NewPath(new(uint256.Int).SetBytes(data[32:64]), data[64])
		if err != nil {
			return nil, fmt.Errorf("edge fact: %v: %w", err, ErrParsing)
		}
		return EdgeData{
			Bottom: common.HashFromBytes(data[:32]),
			Path:   path,
		}, nil
	}
	return nil, fmt.Errorf("fact of %d bytes matches no known layout: %w", len(data), ErrParsing)
}

// ----------------------------------------------------------------------------
//                               Key Contexts
// ----------------------------------------------------------------------------

// KeyContext carries the key prefix partitioning the flat storage key space
// by trie. All facts of a trie, inner nodes and leaves alike, live under its
// prefix and are addressed by their content hash.
type KeyContext struct {
	prefix []byte
}

// ContractsTrieKeys is the key context of the global contracts trie.
func ContractsTrieKeys() KeyContext {
	return KeyContext{prefix: []byte("contracts_trie")}
}

// ClassesTrieKeys is the key context of the global classes trie.
func ClassesTrieKeys() KeyContext {
	return KeyContext{prefix: []byte("classes_trie")}
}

// StorageTrieKeys is the key context of the storage trie of the contract at
// the given address.
func StorageTrieKeys(address *felt.Felt) KeyContext {
	return KeyContext{prefix: []byte("contract_storage:" + address.String())}
}

// FactKey assembles the persisted key of the fact with the given content
// hash.
func (c KeyContext) FactKey(hash common.HashOutput) []byte {
	suffix := hash.Bytes()
	return storage.DBKey(c.prefix, suffix[:])
}
