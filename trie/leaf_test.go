package trie

import (
	"errors"
	"strings"
	"testing"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"

	"github.com/soliton-labs/committer/common"
)

func TestStorageValue_HashIsTheValueItself(t *testing.T) {
	leaf := StorageValue{Value: *new(felt.Felt).SetUint64(0xBEEF)}
	if got, want := leaf.Hash(), common.HashFromFelt(&leaf.Value); !got.Equal(want) {
		t.Errorf("wrong storage value hash, got %s, want %s", got.String(), want.String())
	}
}

func TestStorageValue_RoundTrip(t *testing.T) {
	leaf := StorageValue{Value: *new(felt.Felt).SetUint64(12345)}
	data, err := leaf.Serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	restored, err := DeserializeStorageValue(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored != leaf {
		t.Errorf("round trip changed the leaf, got %s, want %s", restored, leaf)
	}
}

func TestDeserializeStorageValue_RejectsWrongSize(t *testing.T) {
	if _, err := DeserializeStorageValue([]byte{1, 2, 3}); !errors.Is(err, ErrFeltParsing) {
		t.Errorf("expected a felt parsing error, got %v", err)
	}
}

func TestCompiledClassHash_HashIsVersionTagged(t *testing.T) {
	leaf := CompiledClassHash{Value: *new(felt.Felt).SetUint64(77)}
	want := common.HashFromFelt(crypto.Poseidon(classLeafVersion, &leaf.Value))
	if got := leaf.Hash(); !got.Equal(want) {
		t.Errorf("wrong class leaf hash, got %s, want %s", got.String(), want.String())
	}
	// The tag separates the leaf domain from plain value commitments.
	if leaf.Hash().Equal(common.HashFromFelt(&leaf.Value)) {
		t.Errorf("class leaf hash must not equal the raw value")
	}
}

func TestCompiledClassHash_RoundTrip(t *testing.T) {
	leaf := CompiledClassHash{Value: *new(felt.Felt).SetUint64(99)}
	data, err := leaf.Serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	restored, err := DeserializeCompiledClassHash(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored != leaf {
		t.Errorf("round trip changed the leaf, got %s, want %s", restored, leaf)
	}
}

func TestContractState_HashChainsPedersen(t *testing.T) {
	state := ContractState{
		ClassHash:   *new(felt.Felt).SetUint64(3),
		StorageRoot: common.HashFromFelt(new(felt.Felt).SetUint64(5)),
		Nonce:       *new(felt.Felt).SetUint64(1),
	}
	inner := crypto.Pedersen(&state.ClassHash, state.StorageRoot.AsFelt())
	inner = crypto.Pedersen(inner, &state.Nonce)
	want := common.HashFromFelt(crypto.Pedersen(inner, &felt.Zero))
	if got := state.Hash(); !got.Equal(want) {
		t.Errorf("wrong contract state hash, got %s, want %s", got.String(), want.String())
	}
}

func TestContractState_RoundTrip(t *testing.T) {
	state := ContractState{
		ClassHash:   *new(felt.Felt).SetUint64(0xABC),
		StorageRoot: common.HashFromFelt(new(felt.Felt).SetUint64(0xDEF)),
		Nonce:       *new(felt.Felt).SetUint64(7),
	}
	data, err := state.Serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "storage_commitment_tree") {
		t.Errorf("serialized record misses the storage commitment field: %s", data)
	}
	restored, err := DeserializeContractState(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored != state {
		t.Errorf("round trip changed the leaf, got %s, want %s", restored, state)
	}
}

func TestDeserializeContractState_Rejections(t *testing.T) {
	tests := map[string]string{
		"not json":     "certainly not json",
		"wrong height": `{"contract_hash":"0x00","storage_commitment_tree":{"root":"0x00","height":3},"nonce":"0x00"}`,
		"bad felt":     `{"contract_hash":"zz","storage_commitment_tree":{"root":"0x00","height":251},"nonce":"0x00"}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DeserializeContractState([]byte(data))
			if !errors.Is(err, ErrParsing) && !errors.Is(err, ErrFeltParsing) {
				t.Errorf("expected a parsing error, got %v", err)
			}
		})
	}
}

func TestEmptyContractState_IsEmpty(t *testing.T) {
	if !EmptyContractState().IsEmpty() {
		t.Errorf("the empty contract state should report empty")
	}
	withNonce := ContractState{Nonce: *new(felt.Felt).SetUint64(1)}
	if withNonce.IsEmpty() {
		t.Errorf("a state with a nonce is not empty")
	}
}
