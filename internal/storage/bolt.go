package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const boltAllocSize = 8 * 1024 * 1024

// BoltKV persists ledger state in a single bbolt file. Every Update is one
// bolt read-write transaction, so a failed operation leaves no trace.
type BoltKV struct {
	db *bolt.DB
}

func NewBoltKV(path string) (*BoltKV, error) {
	if path == "" {
		return nil, errors.New("bolt path is required")
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o660, &bolt.Options{Timeout: 2 * time.Second, InitialMmapSize: 10e6})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	db.AllocSize = boltAllocSize

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range Buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltKV{db: db}, nil
}

func (b *BoltKV) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (b *BoltKV) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (b *BoltKV) Close() error {
	return b.db.Close()
}

type boltTx struct {
	tx *bolt.Tx
}

func (t *boltTx) bucket(name string) (*bolt.Bucket, error) {
	bkt := t.tx.Bucket([]byte(name))
	if bkt == nil {
		return nil, fmt.Errorf("bucket %s: %w", name, ErrNotExist)
	}
	return bkt, nil
}

func (t *boltTx) Get(bucket string, key []byte) ([]byte, error) {
	bkt, err := t.bucket(bucket)
	if err != nil {
		return nil, err
	}
	v := bkt.Get(key)
	if v == nil {
		return nil, ErrNotExist
	}
	return bytes.Clone(v), nil
}

func (t *boltTx) Put(bucket string, key, value []byte) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	bkt, err := t.bucket(bucket)
	if err != nil {
		return err
	}
	return bkt.Put(key, value)
}

func (t *boltTx) ForEach(bucket string, fn func(key, value []byte) error) error {
	bkt, err := t.bucket(bucket)
	if err != nil {
		return err
	}
	return bkt.ForEach(func(k, v []byte) error {
		return fn(bytes.Clone(k), bytes.Clone(v))
	})
}

func (t *boltTx) Range(bucket string, from, to []byte, fn func(key, value []byte) error) error {
	bkt, err := t.bucket(bucket)
	if err != nil {
		return err
	}
	c := bkt.Cursor()
	var k, v []byte
	if from == nil {
		k, v = c.First()
	} else {
		k, v = c.Seek(from)
	}
	for ; k != nil; k, v = c.Next() {
		if to != nil && bytes.Compare(k, to) > 0 {
			break
		}
		if err := fn(bytes.Clone(k), bytes.Clone(v)); err != nil {
			return err
		}
	}
	return nil
}
