package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/storage"
)

var _ chain.Action = (*CancelMarket)(nil)

// CancelMarket cancels a live market before expiry. Mint is the pool mint,
// or empty if pools were never opened.
type CancelMarket struct {
	Market codec.Address `serialize:"true" json:"market"`
	Mint   ids.ID        `serialize:"true" json:"mint"`
}

func (*CancelMarket) GetTypeID() uint8 {
	return consts.CancelMarketID
}

func (a *CancelMarket) StateKeys(actor codec.Address, _ ids.ID) state.Keys {
	k := newKeys().
		add(storage.MarketKey(a.Market), readWrite).
		add(storage.BalanceKey(actor), state.All)
	if p, err := derivePools(a.Market); err == nil {
		k.pool(p.higher, a.Mint, readWrite, state.Read)
		k.pool(p.lower, a.Mint, readWrite, state.Read)
	}
	return state.Keys(k)
}

func (a *CancelMarket) Execute(
	ctx context.Context,
	_ chain.Rules,
	mu state.Mutable,
	timestamp int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	if err := checkMint(ctx, mu, a.Market, a.Mint); err != nil {
		return nil, err
	}
	l, err := newLedger(ctx, mu, timestamp)
	if err != nil {
		return nil, err
	}
	m, err := l.CancelMarket(ctx, actor, a.Market)
	if err != nil {
		return nil, err
	}
	result := &CancelMarketResult{Closed: m.Closed}
	return result.Bytes(), nil
}

func (*CancelMarket) ComputeUnits(chain.Rules) uint64 {
	return CancelMarketComputeUnits
}

func (*CancelMarket) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *CancelMarket) Bytes() []byte {
	return marshal(consts.CancelMarketID, a, consts.MaxActionSize)
}

func UnmarshalCancelMarket(b []byte) (chain.Action, error) {
	a := &CancelMarket{}
	if err := unmarshal(consts.CancelMarketID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*CancelMarketResult)(nil)

type CancelMarketResult struct {
	// Closed is false while stakes wait in the pools for refunds.
	Closed bool `serialize:"true" json:"closed"`
}

func (*CancelMarketResult) GetTypeID() uint8 {
	return consts.CancelMarketID
}

func (r *CancelMarketResult) Bytes() []byte {
	return marshal(consts.CancelMarketID, r, MaxResultSize)
}

func UnmarshalCancelMarketResult(b []byte) (codec.Typed, error) {
	r := &CancelMarketResult{}
	if err := unmarshal(consts.CancelMarketID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
