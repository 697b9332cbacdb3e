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

var _ chain.Action = (*InitializePools)(nil)

// InitializePools opens the two pools of Market for Mint. The creator pays
// the custody deposits.
type InitializePools struct {
	Market codec.Address `serialize:"true" json:"market"`
	Mint   ids.ID        `serialize:"true" json:"mint"`
}

func (*InitializePools) GetTypeID() uint8 {
	return consts.InitializePoolsID
}

func (a *InitializePools) StateKeys(actor codec.Address, _ ids.ID) state.Keys {
	k := newKeys().
		add(storage.MarketKey(a.Market), readWrite).
		add(storage.BalanceKey(actor), readWrite)
	if p, err := derivePools(a.Market); err == nil {
		k.pool(p.higher, a.Mint, state.All, 0)
		k.pool(p.lower, a.Mint, state.All, 0)
	}
	return state.Keys(k)
}

func (a *InitializePools) Execute(
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
	m, err := l.InitializePools(ctx, actor, a.Market, a.Mint)
	if err != nil {
		return nil, err
	}
	p, err := derivePools(a.Market)
	if err != nil {
		return nil, err
	}
	result := &InitializePoolsResult{
		HigherPool:     p.higher,
		LowerPool:      p.lower,
		HigherPoolBump: m.HigherPoolBump,
		LowerPoolBump:  m.LowerPoolBump,
	}
	return result.Bytes(), nil
}

func (*InitializePools) ComputeUnits(chain.Rules) uint64 {
	return InitializePoolsComputeUnits
}

func (*InitializePools) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *InitializePools) Bytes() []byte {
	return marshal(consts.InitializePoolsID, a, consts.MaxActionSize)
}

func UnmarshalInitializePools(b []byte) (chain.Action, error) {
	a := &InitializePools{}
	if err := unmarshal(consts.InitializePoolsID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*InitializePoolsResult)(nil)

type InitializePoolsResult struct {
	HigherPool     codec.Address `serialize:"true" json:"higherPool"`
	LowerPool      codec.Address `serialize:"true" json:"lowerPool"`
	HigherPoolBump uint8         `serialize:"true" json:"higherPoolBump"`
	LowerPoolBump  uint8         `serialize:"true" json:"lowerPoolBump"`
}

func (*InitializePoolsResult) GetTypeID() uint8 {
	return consts.InitializePoolsID
}

func (r *InitializePoolsResult) Bytes() []byte {
	return marshal(consts.InitializePoolsID, r, MaxResultSize)
}

func UnmarshalInitializePoolsResult(b []byte) (codec.Typed, error) {
	r := &InitializePoolsResult{}
	if err := unmarshal(consts.InitializePoolsID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
