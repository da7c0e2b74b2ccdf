// Package forest orchestrates one block commit across the classes trie, the
// contracts trie, and the storage tries of every touched contract.
package forest

import (
	"sort"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/soliton-labs/committer/trie"
)

// StateDiff is the set of state changes of one block. Zero values are
// deletions: a zero storage value removes the key from the contract's
// storage trie, a zero compiled class hash removes the class from the
// classes trie. Class-hash and nonce entries overwrite the corresponding
// contract-state field; fields without an entry are carried over unchanged.
type StateDiff struct {
	AddressToClassHash           map[felt.Felt]felt.Felt
	AddressToNonce               map[felt.Felt]felt.Felt
	ClassHashToCompiledClassHash map[felt.Felt]felt.Felt
	StorageUpdates               map[felt.Felt]map[felt.Felt]felt.Felt
}

// IsEmpty is true if the diff modifies nothing, in which case a commit
// reproduces the previous roots without writing any facts.
func (d *StateDiff) IsEmpty() bool {
	return len(d.AddressToClassHash) == 0 &&
		len(d.AddressToNonce) == 0 &&
		len(d.ClassHashToCompiledClassHash) == 0 &&
		len(d.StorageUpdates) == 0
}

// accessedAddresses returns every contract address whose contracts-trie leaf
// may change: addresses with a class-hash update, a nonce update, or any
// storage update.
func (d *StateDiff) accessedAddresses() []felt.Felt {
	seen := map[felt.Felt]bool{}
	for address := range d.AddressToClassHash {
		seen[address] = true
	}
	for address := range d.AddressToNonce {
		seen[address] = true
	}
	for address := range d.StorageUpdates {
		seen[address] = true
	}
	addresses := make([]felt.Felt, 0, len(seen))
	for address := range seen {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Cmp(&addresses[j]) < 0
	})
	return addresses
}

// classModifications returns the classes-trie leaf modifications of the
// diff.
func (d *StateDiff) classModifications() (trie.LeafModifications, error) {
	mods := trie.NewLeafModifications()
	for classHash, compiled := range d.ClassHashToCompiledClassHash {
		key := classHash
		index, err := trie.LeafIndexOf(&key)
		if err != nil {
			return nil, err
		}
		if err := mods.Add(index, trie.CompiledClassHash{Value: compiled}); err != nil {
			return nil, err
		}
	}
	return mods, nil
}

// storageModifications returns the storage-trie leaf modifications of one
// contract.
func storageModifications(updates map[felt.Felt]felt.Felt) (trie.LeafModifications, error) {
	mods := trie.NewLeafModifications()
	for storageKey, value := range updates {
		key := storageKey
		index, err := trie.LeafIndexOf(&key)
		if err != nil {
			return nil, err
		}
		if err := mods.Add(index, trie.StorageValue{Value: value}); err != nil {
			return nil, err
		}
	}
	return mods, nil
}
