package common

// Monitor is a sink for operational counters of the commitment pipeline.
// Implementations must be safe for concurrent use; the filled-tree pass
// reports from multiple goroutines.
type Monitor interface {
	// StorageReads reports the number of keys requested from storage in one
	// batch while reconstructing a skeleton.
	StorageReads(count int)
	// NodesComputed reports freshly hashed trie nodes.
	NodesComputed(count int)
	// FactsEmitted reports new persistable facts produced by a commit.
	FactsEmitted(count int)
}

// NopMonitor discards all reported counters. It is the default sink.
type NopMonitor struct{}

func (NopMonitor) StorageReads(int)  {}
func (NopMonitor) NodesComputed(int) {}
func (NopMonitor) FactsEmitted(int)  {}
