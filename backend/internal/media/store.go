// Package media stores uploaded file bytes. Metadata lives in the graph; this
// package only holds the blobs, keyed by file id.
package media

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	apperrors "soceyo/backend/pkg/errors"
	"soceyo/backend/pkg/logger"
)

const keyPrefix = "media:"

// Store is a badger backed blob store
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens a store at dir. An empty dir keeps everything in memory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.NewStorageFailed("open", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an already opened badger database
func NewStore(db *badger.DB) *Store {
	return &Store{
		db:     db,
		logger: logger.Named("media"),
	}
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

// Put stores data under id, replacing any previous blob
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewContextCancelled("media put", err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(id), data)
	})
	if err != nil {
		return apperrors.NewStorageFailed("put", err)
	}
	s.logger.Debug("Stored blob", zap.String("file_id", id), zap.Int("size", len(data)))
	return nil
}

// Get returns the blob stored under id
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextCancelled("media get", err)
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NewNotFound("file", id)
	}
	if err != nil {
		return nil, apperrors.NewStorageFailed("get", err)
	}
	return data, nil
}

// Delete removes the blob stored under id. Missing blobs are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewContextCancelled("media delete", err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
	if err != nil {
		return apperrors.NewStorageFailed("delete", err)
	}
	return nil
}

// Detect sniffs the MIME type of data from its leading bytes
func Detect(data []byte) string {
	return mimetype.Detect(data).String()
}
