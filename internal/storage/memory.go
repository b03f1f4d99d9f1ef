package storage

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryKV is an in-process KV. Writers are serialized and stage their
// changes in an overlay that is merged only when the transaction succeeds.
type MemoryKV struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	buckets := make(map[string]map[string][]byte, len(Buckets))
	for _, name := range Buckets {
		buckets[name] = make(map[string][]byte)
	}
	return &MemoryKV{buckets: buckets}
}

func (m *MemoryKV) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{base: m.buckets, readOnly: true})
}

func (m *MemoryKV) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{base: m.buckets, writes: make(map[string]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for bucket, kvs := range tx.writes {
		target, ok := m.buckets[bucket]
		if !ok {
			target = make(map[string][]byte)
			m.buckets[bucket] = target
		}
		for k, v := range kvs {
			target[k] = v
		}
	}
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}

type memTx struct {
	base     map[string]map[string][]byte
	writes   map[string]map[string][]byte
	readOnly bool
}

func (t *memTx) Get(bucket string, key []byte) ([]byte, error) {
	if staged, ok := t.writes[bucket]; ok {
		if v, ok := staged[string(key)]; ok {
			return bytes.Clone(v), nil
		}
	}
	if v, ok := t.base[bucket][string(key)]; ok {
		return bytes.Clone(v), nil
	}
	return nil, ErrNotExist
}

func (t *memTx) Put(bucket string, key, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	staged, ok := t.writes[bucket]
	if !ok {
		staged = make(map[string][]byte)
		t.writes[bucket] = staged
	}
	staged[string(key)] = bytes.Clone(value)
	return nil
}

func (t *memTx) ForEach(bucket string, fn func(key, value []byte) error) error {
	return t.Range(bucket, nil, nil, fn)
}

func (t *memTx) Range(bucket string, from, to []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte, len(t.base[bucket]))
	for k, v := range t.base[bucket] {
		merged[k] = v
	}
	for k, v := range t.writes[bucket] {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		if from != nil && k < string(from) {
			continue
		}
		if to != nil && k > string(to) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn([]byte(k), bytes.Clone(merged[k])); err != nil {
			return err
		}
	}
	return nil
}
