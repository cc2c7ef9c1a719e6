package db

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryDatabase is an in-memory Database used for tests and for nodes
// that do not need the ledger to survive a restart.
type MemoryDatabase struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory database.
func NewMemory() *MemoryDatabase {
	return &MemoryDatabase{data: make(map[string][]byte)}
}

func (m *MemoryDatabase) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryDatabase) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryDatabase) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemoryDatabase) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

// Iterator snapshots the matching keys in sorted order.
func (m *MemoryDatabase) Iterator(start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = append([]byte(nil), m.data[k]...)
	}
	return &memoryIterator{keys: keys, values: values, pos: -1}, nil
}

func (m *MemoryDatabase) Batch() Batch {
	return &memoryBatch{db: m}
}

func (m *MemoryDatabase) Close() error {
	return nil
}

type memoryIterator struct {
	keys   []string
	values [][]byte
	pos    int
}

func (it *memoryIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memoryIterator) Key() []byte {
	return []byte(it.keys[it.pos])
}

func (it *memoryIterator) Value() []byte {
	return it.values[it.pos]
}

func (it *memoryIterator) Error() error { return nil }

func (it *memoryIterator) Close() error { return nil }

type memoryOp struct {
	key    []byte
	value  []byte
	delete bool
}

type memoryBatch struct {
	db  *MemoryDatabase
	ops []memoryOp
}

func (b *memoryBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, memoryOp{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

func (b *memoryBatch) Delete(key []byte) error {
	b.ops = append(b.ops, memoryOp{
		key:    append([]byte(nil), key...),
		delete: true,
	})
	return nil
}

func (b *memoryBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.db.data, string(op.key))
		} else {
			b.db.data[string(op.key)] = op.value
		}
	}
	return nil
}

func (b *memoryBatch) Reset() {
	b.ops = nil
}
