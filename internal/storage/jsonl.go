package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"drtManager/internal/model"
)

// JsonlJournal appends receipts to a JSONL file, one receipt per line.
// The file is opened on the first batch and synced after every batch.
type JsonlJournal struct {
	path string

	mu   sync.Mutex
	file *os.File
}

func NewJsonlJournal(path string) *JsonlJournal {
	return &JsonlJournal{path: path}
}

func (j *JsonlJournal) PutReceiptBatch(receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		if dir := filepath.Dir(j.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create journal dir: %w", err)
			}
		}
		file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open journal %s: %w", j.path, err)
		}
		j.file = file
	}

	buf := bufio.NewWriter(j.file)
	enc := json.NewEncoder(buf)
	for _, receipt := range receipts {
		if err := enc.Encode(receipt); err != nil {
			return fmt.Errorf("encode receipt slot %d: %w", receipt.Slot, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return j.file.Sync()
}

func (j *JsonlJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// ReadJournal decodes every receipt in a JSONL journal file.
func ReadJournal(path string) ([]model.Receipt, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	defer file.Close()

	var receipts []model.Receipt
	dec := json.NewDecoder(file)
	for {
		var r model.Receipt
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				return receipts, nil
			}
			return nil, fmt.Errorf("decode journal line %d: %w", len(receipts)+1, err)
		}
		receipts = append(receipts, r)
	}
}
