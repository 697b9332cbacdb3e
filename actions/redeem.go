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

var _ chain.Action = (*Redeem)(nil)

// Redeem settles the actor's bets on a resolved market.
type Redeem struct {
	Market codec.Address `serialize:"true" json:"market"`
	Mint   ids.ID        `serialize:"true" json:"mint"`
}

func (*Redeem) GetTypeID() uint8 {
	return consts.RedeemID
}

// settlementKeys covers every key a bettor's settlement can touch: both bets,
// both pool balances, and the bettor's own balance.
func settlementKeys(m codec.Address, mint ids.ID, actor codec.Address) keys {
	k := newKeys().
		add(storage.MarketKey(m), state.Read).
		add(custody.BalanceKey(actor, mint), state.All).
		add(storage.BetKey(m, actor, consts.Higher), readWrite).
		add(storage.BetKey(m, actor, consts.Lower), readWrite)
	if p, err := derivePools(m); err == nil {
		k.pool(p.higher, mint, 0, readWrite)
		k.pool(p.lower, mint, 0, readWrite)
	}
	return k
}

func (a *Redeem) StateKeys(actor codec.Address, _ ids.ID) state.Keys {
	return state.Keys(settlementKeys(a.Market, a.Mint, actor))
}

func (a *Redeem) Execute(
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
	r, err := l.Redeem(ctx, actor, a.Market, a.Mint)
	if err != nil {
		return nil, err
	}
	result := &RedeemResult{Payout: r.Payout, SettledBets: uint8(len(r.Settled))}
	return result.Bytes(), nil
}

func (*Redeem) ComputeUnits(chain.Rules) uint64 {
	return RedeemComputeUnits
}

func (*Redeem) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *Redeem) Bytes() []byte {
	return marshal(consts.RedeemID, a, consts.MaxActionSize)
}

func UnmarshalRedeem(b []byte) (chain.Action, error) {
	a := &Redeem{}
	if err := unmarshal(consts.RedeemID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*RedeemResult)(nil)

type RedeemResult struct {
	Payout      uint64 `serialize:"true" json:"payout"`
	SettledBets uint8  `serialize:"true" json:"settledBets"`
}

func (*RedeemResult) GetTypeID() uint8 {
	return consts.RedeemID
}

func (r *RedeemResult) Bytes() []byte {
	return marshal(consts.RedeemID, r, MaxResultSize)
}

func UnmarshalRedeemResult(b []byte) (codec.Typed, error) {
	r := &RedeemResult{}
	if err := unmarshal(consts.RedeemID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
