package controller

import (
	"context"

	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/storage"
)

var _ chain.BalanceHandler = (*Controller)(nil)

// Controller pays transaction fees from native balances.
type Controller struct{}

func New() *Controller {
	return &Controller{}
}

func (*Controller) SponsorStateKeys(addr codec.Address) state.Keys {
	return state.Keys{
		string(storage.BalanceKey(addr)): state.Read | state.Write,
	}
}

func (*Controller) CanDeduct(ctx context.Context, addr codec.Address, im state.Immutable, amount uint64) error {
	bal, err := storage.GetBalance(ctx, im, addr)
	if err != nil {
		return err
	}
	if bal < amount {
		return storage.ErrInsufficientBalance
	}
	return nil
}

func (*Controller) Deduct(ctx context.Context, addr codec.Address, mu state.Mutable, amount uint64) error {
	return storage.DeductBalance(ctx, mu, addr, amount)
}

func (*Controller) AddBalance(ctx context.Context, addr codec.Address, mu state.Mutable, amount uint64) error {
	return storage.AddBalance(ctx, mu, addr, amount)
}

func (*Controller) GetBalance(ctx context.Context, addr codec.Address, im state.Immutable) (uint64, error) {
	return storage.GetBalance(ctx, im, addr)
}
