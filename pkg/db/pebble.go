package db

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

// PebbleDatabase is a PebbleDB implementation of the Database interface.
type PebbleDatabase struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a PebbleDB database at path.
func OpenPebble(path string) (*PebbleDatabase, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleDatabase{db: db}, nil
}

func (pdb *PebbleDatabase) Put(key, value []byte) error {
	return pdb.db.Set(key, value, pebble.Sync)
}

func (pdb *PebbleDatabase) Get(key []byte) ([]byte, error) {
	value, closer, err := pdb.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// The returned slice is only valid until closer.Close().
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (pdb *PebbleDatabase) Delete(key []byte) error {
	return pdb.db.Delete(key, pebble.Sync)
}

func (pdb *PebbleDatabase) Has(key []byte) (bool, error) {
	_, closer, err := pdb.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

func (pdb *PebbleDatabase) Iterator(start, end []byte) (Iterator, error) {
	iter, err := pdb.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{iter: iter}, nil
}

func (pdb *PebbleDatabase) Batch() Batch {
	return &pebbleBatch{batch: pdb.db.NewBatch()}
}

func (pdb *PebbleDatabase) Close() error {
	return pdb.db.Close()
}

type pebbleIterator struct {
	iter    *pebble.Iterator
	started bool
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	return it.iter.Next()
}

func (it *pebbleIterator) Key() []byte {
	return it.iter.Key()
}

func (it *pebbleIterator) Value() []byte {
	return it.iter.Value()
}

func (it *pebbleIterator) Error() error {
	return it.iter.Error()
}

func (it *pebbleIterator) Close() error {
	return it.iter.Close()
}

type pebbleBatch struct {
	batch *pebble.Batch
}

func (b *pebbleBatch) Put(key, value []byte) error {
	return b.batch.Set(key, value, nil)
}

func (b *pebbleBatch) Delete(key []byte) error {
	return b.batch.Delete(key, nil)
}

func (b *pebbleBatch) Write() error {
	return b.batch.Commit(pebble.Sync)
}

func (b *pebbleBatch) Reset() {
	b.batch.Reset()
}
