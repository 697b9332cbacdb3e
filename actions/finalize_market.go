package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/custody"
	"github.com/chokosabe/pricepredictionvm/storage"
)

var _ chain.Action = (*FinalizeMarket)(nil)

// FinalizeMarket sweeps what is left in the pools to the creator after the
// lock period and closes them.
type FinalizeMarket struct {
	Market codec.Address `serialize:"true" json:"market"`
	Mint   ids.ID        `serialize:"true" json:"mint"`
}

func (*FinalizeMarket) GetTypeID() uint8 {
	return consts.FinalizeMarketID
}

func (a *FinalizeMarket) StateKeys(actor codec.Address, _ ids.ID) state.Keys {
	k := newKeys().
		add(storage.MarketKey(a.Market), readWrite).
		add(storage.BalanceKey(actor), state.All).
		add(custody.BalanceKey(actor, a.Mint), state.All)
	if p, err := derivePools(a.Market); err == nil {
		k.pool(p.higher, a.Mint, readWrite, readWrite)
		k.pool(p.lower, a.Mint, readWrite, readWrite)
	}
	return state.Keys(k)
}

func (a *FinalizeMarket) Execute(
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
	swept, err := l.FinalizeMarket(ctx, actor, a.Market)
	if err != nil {
		return nil, err
	}
	result := &FinalizeMarketResult{Swept: swept}
	return result.Bytes(), nil
}

func (*FinalizeMarket) ComputeUnits(chain.Rules) uint64 {
	return FinalizeMarketComputeUnits
}

func (*FinalizeMarket) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *FinalizeMarket) Bytes() []byte {
	return marshal(consts.FinalizeMarketID, a, consts.MaxActionSize)
}

func UnmarshalFinalizeMarket(b []byte) (chain.Action, error) {
	a := &FinalizeMarket{}
	if err := unmarshal(consts.FinalizeMarketID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*FinalizeMarketResult)(nil)

type FinalizeMarketResult struct {
	Swept uint64 `serialize:"true" json:"swept"`
}

func (*FinalizeMarketResult) GetTypeID() uint8 {
	return consts.FinalizeMarketID
}

func (r *FinalizeMarketResult) Bytes() []byte {
	return marshal(consts.FinalizeMarketID, r, MaxResultSize)
}

func UnmarshalFinalizeMarketResult(b []byte) (codec.Typed, error) {
	r := &FinalizeMarketResult{}
	if err := unmarshal(consts.FinalizeMarketID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
