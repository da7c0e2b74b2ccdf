package committer

import (
	"testing"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/soliton-labs/committer/forest"
	"github.com/soliton-labs/committer/storage"
)

// countingMonitor records how often the commit pipeline reports progress.
type countingMonitor struct {
	reads int
	nodes int
	facts int
}

func (m *countingMonitor) StorageReads(count int)  { m.reads += count }
func (m *countingMonitor) NodesComputed(count int) { m.nodes += count }
func (m *countingMonitor) FactsEmitted(count int)  { m.facts += count }

func blockDiff(address, key, value uint64) *forest.StateDiff {
	return &forest.StateDiff{
		StorageUpdates: map[felt.Felt]map[felt.Felt]felt.Felt{
			*new(felt.Felt).SetUint64(address): {
				*new(felt.Felt).SetUint64(key): *new(felt.Felt).SetUint64(value),
			},
		},
	}
}

func TestCommitter_CommitsConsecutiveBlocks(t *testing.T) {
	store := storage.NewMemoryStorage()
	committer := New(store)

	first, err := committer.CommitAndWriteBlock(forest.Roots{}, blockDiff(1, 10, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Roots.ContractsTrieRoot.IsEmpty() {
		t.Fatalf("first block left the contracts root empty")
	}

	second, err := committer.CommitAndWriteBlock(first.Roots, blockDiff(1, 11, 200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Roots == first.Roots {
		t.Errorf("second block did not move the roots")
	}
}

func TestCommitter_CommitBlockDoesNotPersist(t *testing.T) {
	store := storage.NewMemoryStorage()
	committer := New(store)

	commitment, err := committer.CommitBlock(forest.Roots{}, blockDiff(2, 1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commitment.Facts) == 0 {
		t.Fatalf("commit produced no facts")
	}
	if got, want := store.Size(), 0; got != want {
		t.Errorf("CommitBlock wrote %d entries without being asked", got)
	}
	if err := commitment.WriteTo(store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := store.Size(), len(commitment.Facts); got != want {
		t.Errorf("wrong number of persisted entries, got %d, want %d", got, want)
	}
}

func TestCommitter_MonitorSeesThePipeline(t *testing.T) {
	monitor := &countingMonitor{}
	committer := New(storage.NewMemoryStorage(), WithMonitor(monitor))

	first, err := committer.CommitAndWriteBlock(forest.Roots{}, blockDiff(3, 1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if monitor.nodes == 0 || monitor.facts == 0 {
		t.Errorf("monitor saw no computed nodes or facts: %+v", monitor)
	}

	// The second block walks existing paths, so reads must show up.
	if _, err := committer.CommitAndWriteBlock(first.Roots, blockDiff(3, 1, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if monitor.reads == 0 {
		t.Errorf("monitor saw no storage reads")
	}
}
