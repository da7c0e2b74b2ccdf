// Package committer computes Patricia-Merkle state commitments for
// sequencer blocks: given the previous trie roots and a block's state diff,
// it derives the new contracts-trie and classes-trie roots together with
// the new trie facts, reading and rehashing only the paths the diff
// touches.
package committer

import (
	"github.com/soliton-labs/committer/common"
	"github.com/soliton-labs/committer/forest"
	"github.com/soliton-labs/committer/storage"
)

// Committer commits blocks against one fact store. It is safe for
// concurrent use as long as the underlying store is.
type Committer struct {
	store   storage.Storage
	monitor common.Monitor
}

// Option configures a Committer.
type Option func(*Committer)

// WithMonitor installs a sink for operational counters.
func WithMonitor(monitor common.Monitor) Option {
	return func(c *Committer) {
		c.monitor = monitor
	}
}

// New creates a Committer over the given fact store.
func New(store storage.Storage, options ...Option) *Committer {
	committer := &Committer{
		store:   store,
		monitor: common.NopMonitor{},
	}
	for _, option := range options {
		option(committer)
	}
	return committer
}

// CommitBlock computes the commitment of one block without persisting it.
// An empty diff reproduces the previous roots and no facts. The returned
// commitment is persisted with its WriteTo method; nothing is written on
// error, so a failed commit leaves the store untouched.
func (c *Committer) CommitBlock(previous forest.Roots, diff *forest.StateDiff) (*forest.Commitment, error) {
	return forest.Commit(c.store, previous, diff, c.monitor)
}

// CommitAndWriteBlock commits one block and persists its facts in a single
// batched write.
func (c *Committer) CommitAndWriteBlock(previous forest.Roots, diff *forest.StateDiff) (*forest.Commitment, error) {
	commitment, err := c.CommitBlock(previous, diff)
	if err != nil {
		return nil, err
	}
	if err := commitment.WriteTo(c.store); err != nil {
		return nil, err
	}
	return commitment, nil
}
