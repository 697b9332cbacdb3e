package market

import (
	"context"
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/hypersdk/chain/chaintest"
	"github.com/stretchr/testify/require"
)

func TestOverlay(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	base := &recordingStore{Mutable: chaintest.NewInMemoryStore()}
	require.NoError(base.Mutable.Insert(ctx, []byte("kept"), []byte{1}))
	require.NoError(base.Mutable.Insert(ctx, []byte("dropped"), []byte{2}))

	o := newOverlay(base)
	require.NoError(o.Insert(ctx, []byte("new"), []byte{3}))
	require.NoError(o.Remove(ctx, []byte("dropped")))
	require.NoError(o.Insert(ctx, []byte("kept"), []byte{4}))

	// Reads see staged writes while the base is untouched.
	v, err := o.GetValue(ctx, []byte("kept"))
	require.NoError(err)
	require.Equal([]byte{4}, v)
	_, err = o.GetValue(ctx, []byte("dropped"))
	require.ErrorIs(err, database.ErrNotFound)
	require.Zero(base.writes)

	require.NoError(o.commit(ctx))
	require.Equal(3, base.writes)
	v, err = base.GetValue(ctx, []byte("kept"))
	require.NoError(err)
	require.Equal([]byte{4}, v)
	_, err = base.GetValue(ctx, []byte("dropped"))
	require.ErrorIs(err, database.ErrNotFound)
}

func TestOverlayCreateThenRemove(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	base := &recordingStore{Mutable: chaintest.NewInMemoryStore()}

	o := newOverlay(base)
	require.NoError(o.Insert(ctx, []byte("temporary"), []byte{1}))
	require.NoError(o.Remove(ctx, []byte("temporary")))
	require.NoError(o.commit(ctx))
	require.Zero(base.writes)
}

func TestAtomicDiscardsFailedWrites(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	store := &recordingStore{Mutable: f.mu}
	l := NewLedger(store, f.params, start)

	errBoom := errors.New("boom")
	err := l.atomic(ctx, func(t *tx) error {
		if err := t.mu.Insert(ctx, []byte("partial"), []byte{1}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(err, errBoom)
	require.Zero(store.writes)
	_, err = f.mu.GetValue(ctx, []byte("partial"))
	require.ErrorIs(err, database.ErrNotFound)
}
