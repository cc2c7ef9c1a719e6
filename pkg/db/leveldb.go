package db

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBDatabase is a LevelDB implementation of the Database interface.
type LevelDBDatabase struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a LevelDB database at path.
func OpenLevelDB(path string) (*LevelDBDatabase, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBDatabase{db: db}, nil
}

func (ldb *LevelDBDatabase) Put(key, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDBDatabase) Get(key []byte) ([]byte, error) {
	value, err := ldb.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (ldb *LevelDBDatabase) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

func (ldb *LevelDBDatabase) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDBDatabase) Iterator(start, end []byte) (Iterator, error) {
	return &levelDBIterator{
		iter: ldb.db.NewIterator(&util.Range{Start: start, Limit: end}, nil),
	}, nil
}

func (ldb *LevelDBDatabase) Batch() Batch {
	return &levelDBBatch{
		batch: new(leveldb.Batch),
		db:    ldb.db,
	}
}

func (ldb *LevelDBDatabase) Close() error {
	return ldb.db.Close()
}

type levelDBIterator struct {
	iter iterator.Iterator
}

func (it *levelDBIterator) Next() bool {
	return it.iter.Next()
}

func (it *levelDBIterator) Key() []byte {
	return it.iter.Key()
}

func (it *levelDBIterator) Value() []byte {
	return it.iter.Value()
}

func (it *levelDBIterator) Error() error {
	return it.iter.Error()
}

func (it *levelDBIterator) Close() error {
	it.iter.Release()
	return nil
}

type levelDBBatch struct {
	batch *leveldb.Batch
	db    *leveldb.DB
}

func (b *levelDBBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelDBBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelDBBatch) Write() error {
	return b.db.Write(b.batch, &opt.WriteOptions{Sync: true})
}

func (b *levelDBBatch) Reset() {
	b.batch.Reset()
}
