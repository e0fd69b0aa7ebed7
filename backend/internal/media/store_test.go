package media

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	apperrors "soceyo/backend/pkg/errors"
)

func setupTestStore(t *testing.T) *Store {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestStore_PutGetDelete(t *testing.T) {
	req := require.New(t)
	store := setupTestStore(t)
	ctx := context.Background()

	req.NoError(store.Put(ctx, "f1", []byte("hello")))

	data, err := store.Get(ctx, "f1")
	req.NoError(err)
	req.Equal([]byte("hello"), data)

	req.NoError(store.Put(ctx, "f1", []byte("replaced")))
	data, err = store.Get(ctx, "f1")
	req.NoError(err)
	req.Equal([]byte("replaced"), data)

	req.NoError(store.Delete(ctx, "f1"))
	_, err = store.Get(ctx, "f1")
	req.True(apperrors.IsNotFound(err))

	req.NoError(store.Delete(ctx, "f1"))
}

func TestStore_CancelledContext(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "f1", []byte("x"))
	require.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))
}

func TestOpen_InMemory(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), "f1", []byte("x")))
}

func TestDetect(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.Equal(t, "image/png", Detect(png))
	require.Equal(t, "text/plain; charset=utf-8", Detect([]byte("plain words")))
}
