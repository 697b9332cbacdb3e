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

var _ chain.Action = (*PlaceBet)(nil)

// PlaceBet stakes Amount of Mint on Side of Market.
type PlaceBet struct {
	Market codec.Address `serialize:"true" json:"market"`
	Side   consts.Side   `serialize:"true" json:"side"`
	Mint   ids.ID        `serialize:"true" json:"mint"`
	Amount uint64        `serialize:"true" json:"amount"`
}

func (*PlaceBet) GetTypeID() uint8 {
	return consts.PlaceBetID
}

func (a *PlaceBet) StateKeys(actor codec.Address, _ ids.ID) state.Keys {
	k := newKeys().
		add(storage.MarketKey(a.Market), state.Read).
		add(custody.BalanceKey(actor, a.Mint), readWrite)
	if a.Side.Valid() {
		k.add(storage.BetKey(a.Market, actor, a.Side), state.All)
		if p, err := derivePools(a.Market); err == nil {
			k.pool(p.of(a.Side), a.Mint, state.Read, state.All)
		}
	}
	return state.Keys(k)
}

func (a *PlaceBet) Execute(
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
	bet, err := l.PlaceBet(ctx, actor, a.Market, a.Side, a.Mint, a.Amount)
	if err != nil {
		return nil, err
	}
	result := &PlaceBetResult{Side: bet.Side, Staked: a.Amount, BetTotal: bet.Amount}
	return result.Bytes(), nil
}

func (*PlaceBet) ComputeUnits(chain.Rules) uint64 {
	return PlaceBetComputeUnits
}

func (*PlaceBet) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *PlaceBet) Bytes() []byte {
	return marshal(consts.PlaceBetID, a, consts.MaxActionSize)
}

func UnmarshalPlaceBet(b []byte) (chain.Action, error) {
	a := &PlaceBet{}
	if err := unmarshal(consts.PlaceBetID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*PlaceBetResult)(nil)

type PlaceBetResult struct {
	Side     consts.Side `serialize:"true" json:"side"`
	Staked   uint64      `serialize:"true" json:"staked"`
	BetTotal uint64      `serialize:"true" json:"betTotal"`
}

func (*PlaceBetResult) GetTypeID() uint8 {
	return consts.PlaceBetID
}

func (r *PlaceBetResult) Bytes() []byte {
	return marshal(consts.PlaceBetID, r, MaxResultSize)
}

func UnmarshalPlaceBetResult(b []byte) (codec.Typed, error) {
	r := &PlaceBetResult{}
	if err := unmarshal(consts.PlaceBetID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
