package forest

import (
	"fmt"
	"runtime"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/sourcegraph/conc/pool"

	"github.com/soliton-labs/committer/common"
	"github.com/soliton-labs/committer/storage"
	"github.com/soliton-labs/committer/trie"
)

// Roots are the two global commitments of a committed state.
type Roots struct {
	ContractsTrieRoot common.HashOutput
	ClassesTrieRoot   common.HashOutput
}

// Commitment is the output of one block commit: the new global roots, the
// new storage root of every contract whose storage changed, and the facts
// to be persisted. Nothing is written to storage until WriteTo is called.
type Commitment struct {
	Roots        Roots
	StorageRoots map[felt.Felt]common.HashOutput
	Facts        map[string][]byte
}

// WriteTo persists the commitment's facts in one batched write. Atomicity
// is delegated to the store.
func (c *Commitment) WriteTo(store storage.Storage) error {
	if len(c.Facts) == 0 {
		return nil
	}
	return store.MSet(c.Facts)
}

// Commit computes the state commitment of one block: given the previous
// roots and a state diff, it produces the new roots and the set of new trie
// facts. Only the subtrees on paths to modified leaves are read or
// recomputed. Storage tries are committed first, concurrently, since their
// new roots are embedded in the contracts-trie leaves.
func Commit(store storage.Storage, previous Roots, diff *StateDiff, monitor common.Monitor) (*Commitment, error) {
	result := &Commitment{
		Roots:        previous,
		StorageRoots: map[felt.Felt]common.HashOutput{},
		Facts:        map[string][]byte{},
	}
	if diff.IsEmpty() {
		return result, nil
	}

	addresses := diff.accessedAddresses()
	// Ascending addresses map to ascending leaf indices.
	contractIndices := make([]trie.NodeIndex, len(addresses))
	for i := range addresses {
		index, err := trie.LeafIndexOf(&addresses[i])
		if err != nil {
			return nil, fmt.Errorf("contracts trie: %w", err)
		}
		contractIndices[i] = index
	}
	contractsSkeleton, err := trie.BuildOriginalSkeleton(store, previous.ContractsTrieRoot, contractIndices, trie.SkeletonConfig{
		Keys:                  trie.ContractsTrieKeys(),
		ComparePreviousLeaves: true,
		DeserializeLeaf:       trie.DeserializeContractState,
	}, monitor)
	if err != nil {
		return nil, fmt.Errorf("contracts trie: %w", err)
	}
	previousStates := make([]trie.ContractState, len(addresses))
	for i := range addresses {
		previousStates[i] = previousContractState(contractsSkeleton, contractIndices[i])
	}

	if err := commitStorageTries(store, diff, addresses, previousStates, result, monitor); err != nil {
		return nil, err
	}

	if err := commitClassesTrie(store, previous.ClassesTrieRoot, diff, result, monitor); err != nil {
		return nil, err
	}

	if err := commitContractsTrie(contractsSkeleton, diff, addresses, contractIndices, previousStates, result, monitor); err != nil {
		return nil, err
	}

	monitor.FactsEmitted(len(result.Facts))
	return result, nil
}

// previousContractState returns the pre-update state of the contract at the
// given leaf index; contracts not yet in the trie start from the empty
// state.
func previousContractState(skeleton *trie.OriginalSkeletonTree, index trie.NodeIndex) trie.ContractState {
	if leaf, ok := skeleton.PreviousLeaf(index); ok {
		if state, ok := leaf.(trie.ContractState); ok {
			return state
		}
	}
	return trie.EmptyContractState()
}

// storageCommit is the output of committing one contract's storage trie.
type storageCommit struct {
	address felt.Felt
	root    common.HashOutput
	facts   map[string][]byte
}

// commitStorageTries commits the storage trie of every contract with
// storage updates, concurrently, and merges the resulting roots and facts
// into result.
func commitStorageTries(
	store storage.Storage,
	diff *StateDiff,
	addresses []felt.Felt,
	previousStates []trie.ContractState,
	result *Commitment,
	monitor common.Monitor,
) error {
	workers := pool.NewWithResults[storageCommit]().
		WithErrors().
		WithMaxGoroutines(runtime.GOMAXPROCS(0))
	for i := range addresses {
		address := addresses[i]
		updates, ok := diff.StorageUpdates[address]
		if !ok {
			continue
		}
		previousRoot := previousStates[i].StorageRoot
		workers.Go(func() (storageCommit, error) {
			return commitStorageTrie(store, address, previousRoot, updates, monitor)
		})
	}
	commits, err := workers.Wait()
	if err != nil {
		return err
	}
	for _, commit := range commits {
		result.StorageRoots[commit.address] = commit.root
		for key, fact := range commit.facts {
			result.Facts[key] = fact
		}
	}
	return nil
}

// commitStorageTrie commits one contract's storage trie. Modifications that
// match the previous value are dropped; if nothing remains, the previous
// root is returned and no facts are produced.
func commitStorageTrie(
	store storage.Storage,
	address felt.Felt,
	previousRoot common.HashOutput,
	updates map[felt.Felt]felt.Felt,
	monitor common.Monitor,
) (storageCommit, error) {
	fail := func(err error) (storageCommit, error) {
		return storageCommit{}, fmt.Errorf("storage trie of %s: %w", address.String(), err)
	}
	mods, err := storageModifications(updates)
	if err != nil {
		return fail(err)
	}
	skeleton, err := trie.BuildOriginalSkeleton(store, previousRoot, mods.SortedIndices(), trie.SkeletonConfig{
		Keys:                  trie.StorageTrieKeys(&address),
		DeletedIndices:        mods.Deletions(),
		ComparePreviousLeaves: true,
		DeserializeLeaf:       trie.DeserializeStorageValue,
	}, monitor)
	if err != nil {
		return fail(err)
	}
	live := dropUnchanged(mods, skeleton)
	if len(live) == 0 {
		return storageCommit{address: address, root: previousRoot}, nil
	}
	updated, err := trie.BuildUpdatedSkeleton(skeleton, live)
	if err != nil {
		return fail(err)
	}
	filled, err := trie.FillTree(updated, trie.PedersenHash, monitor)
	if err != nil {
		return fail(err)
	}
	facts := map[string][]byte{}
	if err := filled.WriteFacts(trie.StorageTrieKeys(&address), facts); err != nil {
		return fail(err)
	}
	return storageCommit{address: address, root: filled.RootHash(), facts: facts}, nil
}

// dropUnchanged filters out modifications that would not change the tree:
// updates equal to the captured previous value and deletions of absent
// leaves. Dropped leaves are reinstated from the skeleton's previous values
// during the update phase.
func dropUnchanged(mods trie.LeafModifications, skeleton *trie.OriginalSkeletonTree) trie.LeafModifications {
	live := trie.NewLeafModifications()
	for index, leaf := range mods {
		if previous, ok := skeleton.PreviousLeaf(index); ok {
			if previous.Hash().Equal(leaf.Hash()) {
				continue
			}
		} else if leaf.IsEmpty() {
			continue
		}
		live[index] = leaf
	}
	return live
}

// commitClassesTrie commits the classes trie and merges its root and facts
// into result.
func commitClassesTrie(
	store storage.Storage,
	previousRoot common.HashOutput,
	diff *StateDiff,
	result *Commitment,
	monitor common.Monitor,
) error {
	mods, err := diff.classModifications()
	if err != nil {
		return fmt.Errorf("classes trie: %w", err)
	}
	if len(mods) == 0 {
		return nil
	}
	skeleton, err := trie.BuildOriginalSkeleton(store, previousRoot, mods.SortedIndices(), trie.SkeletonConfig{
		Keys:           trie.ClassesTrieKeys(),
		DeletedIndices: mods.Deletions(),
	}, monitor)
	if err != nil {
		return fmt.Errorf("classes trie: %w", err)
	}
	updated, err := trie.BuildUpdatedSkeleton(skeleton, mods)
	if err != nil {
		return fmt.Errorf("classes trie: %w", err)
	}
	filled, err := trie.FillTree(updated, trie.PoseidonHash, monitor)
	if err != nil {
		return fmt.Errorf("classes trie: %w", err)
	}
	if err := filled.WriteFacts(trie.ClassesTrieKeys(), result.Facts); err != nil {
		return fmt.Errorf("classes trie: %w", err)
	}
	result.Roots.ClassesTrieRoot = filled.RootHash()
	return nil
}

// commitContractsTrie derives the new contract-state leaves from the diff
// and the freshly committed storage roots, commits the contracts trie, and
// merges its root and facts into result.
func commitContractsTrie(
	skeleton *trie.OriginalSkeletonTree,
	diff *StateDiff,
	addresses []felt.Felt,
	indices []trie.NodeIndex,
	previousStates []trie.ContractState,
	result *Commitment,
	monitor common.Monitor,
) error {
	mods := trie.NewLeafModifications()
	for i, address := range addresses {
		previous := previousStates[i]
		state := previous
		if classHash, ok := diff.AddressToClassHash[address]; ok {
			state.ClassHash = classHash
		}
		if nonce, ok := diff.AddressToNonce[address]; ok {
			state.Nonce = nonce
		}
		if root, ok := result.StorageRoots[address]; ok {
			state.StorageRoot = root
		}
		if state == previous {
			// No-op access; the previous leaf stays in place.
			continue
		}
		if err := mods.Add(indices[i], state); err != nil {
			return fmt.Errorf("contracts trie: %w", err)
		}
	}
	if len(mods) == 0 {
		return nil
	}
	updated, err := trie.BuildUpdatedSkeleton(skeleton, mods)
	if err != nil {
		return fmt.Errorf("contracts trie: %w", err)
	}
	filled, err := trie.FillTree(updated, trie.PedersenHash, monitor)
	if err != nil {
		return fmt.Errorf("contracts trie: %w", err)
	}
	if err := filled.WriteFacts(trie.ContractsTrieKeys(), result.Facts); err != nil {
		return fmt.Errorf("contracts trie: %w", err)
	}
	result.Roots.ContractsTrieRoot = filled.RootHash()
	return nil
}
