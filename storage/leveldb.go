package storage

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStorage is a durable Storage implementation on top of a LevelDB
// instance. Batched writes (MSet) are applied through a single LevelDB write
// batch, which the backend persists atomically.
type LevelDBStorage struct {
	db *leveldb.DB
	wo *opt.WriteOptions
}

// OpenLevelDBStorage opens (or creates) a LevelDB-backed storage in the given
// directory. The instance must be released with Close once no longer used.
func OpenLevelDBStorage(path string) (*LevelDBStorage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open leveldb at %s: %w", path, err)
	}
	return &LevelDBStorage{db: db, wo: &opt.WriteOptions{Sync: true}}, nil
}

func (s *LevelDBStorage) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (s *LevelDBStorage) MGet(keys [][]byte) ([][]byte, error) {
	// LevelDB offers no native multi-get; reads against the same snapshot
	// keep the result list consistent.
	snapshot, err := s.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	defer snapshot.Release()
	values := make([][]byte, len(keys))
	for i, key := range keys {
		value, err := snapshot.Get(key, nil)
		if errors.Is(err, leveldb.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func (s *LevelDBStorage) Set(key, value []byte) ([]byte, error) {
	previous, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if err := s.db.Put(key, value, s.wo); err != nil {
		return nil, err
	}
	return previous, nil
}

func (s *LevelDBStorage) MSet(entries map[string][]byte) error {
	batch := new(leveldb.Batch)
	for key, value := range entries {
		batch.Put([]byte(key), value)
	}
	return s.db.Write(batch, s.wo)
}

func (s *LevelDBStorage) Delete(key []byte) ([]byte, error) {
	previous, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(key, s.wo); err != nil {
		return nil, err
	}
	return previous, nil
}

// Close flushes and releases the underlying LevelDB instance.
func (s *LevelDBStorage) Close() error {
	return s.db.Close()
}
