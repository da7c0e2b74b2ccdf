package storage

//go:generate mockgen -source storage.go -destination storage_mocks.go -package storage

// Storage is a flat byte-key to byte-value map consumed by the commitment
// pipeline. A missing key is not an error at this layer; reads of absent keys
// yield nil values. Durability and atomicity of batched writes are the
// responsibility of the implementation.
type Storage interface {
	// Get returns the value stored under the given key, or nil if the key
	// is not present.
	Get(key []byte) ([]byte, error)

	// MGet returns the values of the given keys in the same order as the
	// input, with nil at positions of missing keys.
	MGet(keys [][]byte) ([][]byte, error)

	// Set stores the given value under the given key and returns the value
	// it replaced, or nil if the key was fresh.
	Set(key, value []byte) ([]byte, error)

	// MSet stores all entries of the given map. Implementations should make
	// the batch as atomic as their backend permits.
	MSet(entries map[string][]byte) error

	// Delete removes the given key and returns the value it held, or nil
	// if the key was not present.
	Delete(key []byte) ([]byte, error)
}

// keySeparator splits the object-kind prefix from the object-specific suffix
// in persisted keys. The resulting layout partitions the single flat key
// space of the backend into logical tables, one per trie.
const keySeparator = ':'

// DBKey assembles a persisted key as prefix ++ ':' ++ suffix.
func DBKey(prefix, suffix []byte) []byte {
	key := make([]byte, 0, len(prefix)+1+len(suffix))
	key = append(key, prefix...)
	key = append(key, keySeparator)
	return append(key, suffix...)
}
