package market

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/hypersdk/state"
	"github.com/ava-labs/hypersdk/state/tstate"
)

var _ state.Mutable = (*overlay)(nil)

// overlay stages writes in a tstate view over a base state. Reads see staged
// writes first. Nothing reaches the base unless commit is called.
type overlay struct {
	*tstate.TStateView

	base state.Mutable
	ts   *tstate.TState
}

func newOverlay(base state.Mutable) *overlay {
	ts := tstate.New(0)
	return &overlay{
		TStateView: ts.NewView(state.CompletePermissions, base, 0),
		base:       base,
		ts:         ts,
	}
}

// commit applies the staged writes to the base in key order.
func (o *overlay) commit(ctx context.Context) error {
	o.TStateView.Commit()
	changes := o.ts.ChangedKeys()
	for _, k := range slices.Sorted(maps.Keys(changes)) {
		v := changes[k]
		if v.IsNothing() {
			if err := o.base.Remove(ctx, []byte(k)); err != nil && !errors.Is(err, database.ErrNotFound) {
				return err
			}
			continue
		}
		if err := o.base.Insert(ctx, []byte(k), v.Value()); err != nil {
			return err
		}
	}
	return nil
}
