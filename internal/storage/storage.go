package storage

import (
	"context"
	"errors"

	"drtManager/internal/model"
)

var (
	ErrNotExist = errors.New("not_exist_record")
	ErrReadOnly = errors.New("read_only_transaction")
)

// Bucket names used by the ledger.
const (
	AccountsBucket   = "accounts"
	SignaturesBucket = "signatures"
	ReceiptsBucket   = "receipts"
	MetaBucket       = "meta"
)

// Buckets lists every bucket a KV backend must create on open.
var Buckets = []string{AccountsBucket, SignaturesBucket, ReceiptsBucket, MetaBucket}

// Tx is a view of the key-value state inside a single transaction.
// Values returned by Get are copies and stay valid after the transaction ends.
type Tx interface {
	Get(bucket string, key []byte) ([]byte, error)
	Put(bucket string, key, value []byte) error
	ForEach(bucket string, fn func(key, value []byte) error) error
	// Range visits keys in [from, to] in ascending byte order.
	Range(bucket string, from, to []byte, fn func(key, value []byte) error) error
}

// KV is a transactional key-value store. Update runs fn in a serialized
// read-write transaction that commits only if fn returns nil.
type KV interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Journal is a sink for committed transaction receipts.
type Journal interface {
	PutReceiptBatch(receipts []model.Receipt) error
}

// MultiJournal fans receipts out to every journal and returns the first error.
type MultiJournal []Journal

func (m MultiJournal) PutReceiptBatch(receipts []model.Receipt) error {
	var firstErr error
	for _, j := range m {
		if j == nil {
			continue
		}
		if err := j.PutReceiptBatch(receipts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
