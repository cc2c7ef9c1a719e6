// Package db provides the key-value storage abstraction the chain store
// persists blocks through, with in-memory, LevelDB and PebbleDB backends.
package db

import "errors"

// ErrNotFound is returned by Get when the key does not exist, regardless
// of backend.
var ErrNotFound = errors.New("db: key not found")

// Database is a flat key-value store.
type Database interface {
	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Get retrieves a value by key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Delete removes a key-value pair. Deleting a missing key is not an
	// error.
	Delete(key []byte) error

	// Has checks if a key exists.
	Has(key []byte) (bool, error)

	// Iterator iterates keys in [start, end) in ascending order.
	Iterator(start, end []byte) (Iterator, error)

	// Batch returns a batch for atomic updates.
	Batch() Batch

	// Close closes the database.
	Close() error
}

// Iterator walks a key range in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// Batch accumulates writes that are applied atomically by Write.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Write() error
	Reset()
}

// Backend names a database implementation.
type Backend string

const (
	// Memory keeps everything in process memory.
	Memory Backend = "memory"

	// LevelDB stores data in a LevelDB directory.
	LevelDB Backend = "leveldb"

	// Pebble stores data in a PebbleDB directory.
	Pebble Backend = "pebble"
)

// Open opens a database of the given backend at path. The memory backend
// ignores path.
func Open(backend Backend, path string) (Database, error) {
	switch backend {
	case Memory:
		return NewMemory(), nil
	case LevelDB:
		return OpenLevelDB(path)
	case Pebble:
		return OpenPebble(path)
	default:
		return nil, errors.New("db: unsupported backend " + string(backend))
	}
}
