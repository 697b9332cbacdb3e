package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/derive"
	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/storage"
)

var _ chain.Action = (*InitializeMarket)(nil)

// InitializeMarket opens a market on FeedID for the actor.
type InitializeMarket struct {
	FeedID         string `serialize:"true" json:"feedId"`
	TargetPrice    uint64 `serialize:"true" json:"targetPrice"`
	MarketDuration uint64 `serialize:"true" json:"marketDuration"`
}

func (*InitializeMarket) GetTypeID() uint8 {
	return consts.InitializeMarketID
}

// marketAddress is zero when the feed is malformed; Execute reports why.
func (a *InitializeMarket) marketAddress(actor codec.Address) (codec.Address, bool) {
	id, err := feed.Parse(a.FeedID)
	if err != nil {
		return codec.EmptyAddress, false
	}
	addr, _, err := derive.Market(actor, id, a.TargetPrice, a.MarketDuration, consts.Namespace)
	return addr, err == nil
}

func (a *InitializeMarket) StateKeys(actor codec.Address, _ ids.ID) state.Keys {
	k := newKeys()
	if addr, ok := a.marketAddress(actor); ok {
		k.add(storage.MarketKey(addr), state.All)
	}
	return state.Keys(k)
}

func (a *InitializeMarket) Execute(
	ctx context.Context,
	_ chain.Rules,
	mu state.Mutable,
	timestamp int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	l, err := newLedger(ctx, mu, timestamp)
	if err != nil {
		return nil, err
	}
	created, err := l.InitializeMarket(ctx, actor, a.FeedID, a.TargetPrice, a.MarketDuration)
	if err != nil {
		return nil, err
	}
	result := &InitializeMarketResult{
		Market: created.Address,
		Bump:   created.Market.Bump,
		Expiry: created.Market.Expiry(),
	}
	return result.Bytes(), nil
}

func (*InitializeMarket) ComputeUnits(chain.Rules) uint64 {
	return InitializeMarketComputeUnits
}

func (*InitializeMarket) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *InitializeMarket) Bytes() []byte {
	return marshal(consts.InitializeMarketID, a, consts.MaxActionSize)
}

func UnmarshalInitializeMarket(b []byte) (chain.Action, error) {
	a := &InitializeMarket{}
	if err := unmarshal(consts.InitializeMarketID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*InitializeMarketResult)(nil)

type InitializeMarketResult struct {
	Market codec.Address `serialize:"true" json:"market"`
	Bump   uint8         `serialize:"true" json:"bump"`
	Expiry int64         `serialize:"true" json:"expiry"`
}

func (*InitializeMarketResult) GetTypeID() uint8 {
	return consts.InitializeMarketID
}

func (r *InitializeMarketResult) Bytes() []byte {
	return marshal(consts.InitializeMarketID, r, MaxResultSize)
}

func UnmarshalInitializeMarketResult(b []byte) (codec.Typed, error) {
	r := &InitializeMarketResult{}
	if err := unmarshal(consts.InitializeMarketID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
