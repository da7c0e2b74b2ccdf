package trie

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/soliton-labs/committer/common"
)

// classLeafVersion is the domain-separation constant of class-trie leaves.
var classLeafVersion = new(felt.Felt).SetBytes([]byte("CONTRACT_CLASS_LEAF_V0"))

// Leaf is the capability set every concrete leaf kind implements. A leaf
// whose IsEmpty reports true stands for "no value"; supplying it as a
// modification deletes the leaf.
type Leaf interface {
	// Serialize produces the leaf's persisted byte layout.
	Serialize() ([]byte, error)
	// Hash computes the leaf's commitment per its domain hash rule.
	Hash() common.HashOutput
	// IsEmpty is true for the empty value of the leaf's kind.
	IsEmpty() bool

	fmt.Stringer
}

// LeafDeserializer restores one leaf kind from its persisted bytes.
type LeafDeserializer func(data []byte) (Leaf, error)

// ----------------------------------------------------------------------------
//                               Storage Value
// ----------------------------------------------------------------------------

// StorageValue is a leaf of a per-contract storage trie: a single felt.
type StorageValue struct {
	Value felt.Felt
}

func (l StorageValue) Serialize() ([]byte, error) {
	bytes := l.Value.Bytes()
	return bytes[:], nil
}

// Hash of a storage value is the value itself.
func (l StorageValue) Hash() common.HashOutput {
	return common.HashFromFelt(&l.Value)
}

func (l StorageValue) IsEmpty() bool {
	return l.Value.IsZero()
}

func (l StorageValue) String() string {
	return l.Value.String()
}

// DeserializeStorageValue restores a storage-value leaf from its fact.
func DeserializeStorageValue(data []byte) (Leaf, error) {
	if len(data) != felt.Bytes {
		return nil, fmt.Errorf("storage value of %d bytes: %w", len(data), ErrFeltParsing)
	}
	var leaf StorageValue
	leaf.Value.SetBytes(data)
	return leaf, nil
}

// ----------------------------------------------------------------------------
//                            Compiled Class Hash
// ----------------------------------------------------------------------------

// CompiledClassHash is a leaf of the classes trie: the hash of a compiled
// class, committed under its (Sierra) class hash.
type CompiledClassHash struct {
	Value felt.Felt
}

func (l CompiledClassHash) Serialize() ([]byte, error) {
	bytes := l.Value.Bytes()
	return bytes[:], nil
}

// Hash commits the compiled class hash under the class-leaf version tag.
func (l CompiledClassHash) Hash() common.HashOutput {
	return common.HashFromFelt(crypto.Poseidon(classLeafVersion, &l.Value))
}

func (l CompiledClassHash) IsEmpty() bool {
	return l.Value.IsZero()
}

func (l CompiledClassHash) String() string {
	return l.Value.String()
}

// DeserializeCompiledClassHash restores a class-trie leaf from its fact.
func DeserializeCompiledClassHash(data []byte) (Leaf, error) {
	if len(data) != felt.Bytes {
		return nil, fmt.Errorf("compiled class hash of %d bytes: %w", len(data), ErrFeltParsing)
	}
	var leaf CompiledClassHash
	leaf.Value.SetBytes(data)
	return leaf, nil
}

// ----------------------------------------------------------------------------
//                               Contract State
// ----------------------------------------------------------------------------

// ContractState is a leaf of the global contracts trie, tying a contract's
// class hash, storage-trie root and nonce together.
type ContractState struct {
	ClassHash   felt.Felt
	StorageRoot common.HashOutput
	Nonce       felt.Felt
}

// contractStateRecord is the persisted JSON layout of a ContractState leaf.
type contractStateRecord struct {
	ContractHash          string                  `json:"contract_hash"`
	StorageCommitmentTree storageCommitmentRecord `json:"storage_commitment_tree"`
	Nonce                 string                  `json:"nonce"`
}

type storageCommitmentRecord struct {
	Root   string `json:"root"`
	Height uint8  `json:"height"`
}

// EmptyContractState is the state of a contract before deployment.
func EmptyContractState() ContractState {
	return ContractState{}
}

func (l ContractState) Serialize() ([]byte, error) {
	classHash, root, nonce := l.ClassHash.Bytes(), l.StorageRoot.Bytes(), l.Nonce.Bytes()
	return json.Marshal(contractStateRecord{
		ContractHash: hexutil.Encode(classHash[:]),
		StorageCommitmentTree: storageCommitmentRecord{
			Root:   hexutil.Encode(root[:]),
			Height: TreeHeight,
		},
		Nonce: hexutil.Encode(nonce[:]),
	})
}

// Hash folds class hash, storage root and nonce into the contract's state
// commitment: H(H(H(class_hash, storage_root), nonce), 0).
func (l ContractState) Hash() common.HashOutput {
	hash := crypto.Pedersen(&l.ClassHash, l.StorageRoot.AsFelt())
	hash = crypto.Pedersen(hash, &l.Nonce)
	return common.HashFromFelt(crypto.Pedersen(hash, &felt.Zero))
}

func (l ContractState) IsEmpty() bool {
	return l.ClassHash.IsZero() && l.StorageRoot.IsEmpty() && l.Nonce.IsZero()
}

func (l ContractState) String() string {
	return fmt.Sprintf("contract state {class: %s, storage root: %s, nonce: %s}",
		l.ClassHash.String(), l.StorageRoot.String(), l.Nonce.String())
}

// DeserializeContractState restores a contracts-trie leaf from its fact.
func DeserializeContractState(data []byte) (Leaf, error) {
	var record contractStateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("contract state record: %v: %w", err, ErrParsing)
	}
	if record.StorageCommitmentTree.Height != TreeHeight {
		return nil, fmt.Errorf("contract state commits to a tree of height %d: %w",
			record.StorageCommitmentTree.Height, ErrParsing)
	}
	var leaf ContractState
	for _, field := range []struct {
		encoded string
		target  *felt.Felt
	}{
		{record.ContractHash, &leaf.ClassHash},
		{record.StorageCommitmentTree.Root, leaf.StorageRoot.AsFelt()},
		{record.Nonce, &leaf.Nonce},
	} {
		decoded, err := hexutil.Decode(field.encoded)
		if err != nil {
			return nil, fmt.Errorf("contract state field %q: %w", field.encoded, ErrFeltParsing)
		}
		field.target.SetBytes(decoded)
	}
	return leaf, nil
}
