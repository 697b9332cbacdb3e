package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/market"
	"github.com/chokosabe/pricepredictionvm/oracle"
	"github.com/chokosabe/pricepredictionvm/storage"
)

var _ chain.Action = (*Resolve)(nil)

// Resolve settles an expired market with the latest on-chain sample of its
// feed. Anyone may submit it.
type Resolve struct {
	Market codec.Address `serialize:"true" json:"market"`
	FeedID string        `serialize:"true" json:"feedId"`
	Mint   ids.ID        `serialize:"true" json:"mint"`
}

func (*Resolve) GetTypeID() uint8 {
	return consts.ResolveID
}

func (a *Resolve) StateKeys(codec.Address, ids.ID) state.Keys {
	k := newKeys().add(storage.MarketKey(a.Market), readWrite)
	if id, err := feed.Parse(a.FeedID); err == nil {
		k.add(oracle.SampleKey(id), state.Read)
	}
	if p, err := derivePools(a.Market); err == nil {
		k.pool(p.higher, a.Mint, 0, state.Read)
		k.pool(p.lower, a.Mint, 0, state.Read)
	}
	return state.Keys(k)
}

func (a *Resolve) Execute(
	ctx context.Context,
	_ chain.Rules,
	mu state.Mutable,
	timestamp int64,
	_ codec.Address,
	_ ids.ID,
) ([]byte, error) {
	id, err := feed.Parse(a.FeedID)
	if err != nil {
		return nil, err
	}
	if err := checkMint(ctx, mu, a.Market, a.Mint); err != nil {
		return nil, err
	}
	sample, err := oracle.NewStateReader(mu).ReadLatestSample(ctx, id)
	if errors.Is(err, oracle.ErrSampleNotFound) {
		return nil, fmt.Errorf("%w: %w", market.ErrStaleOrMismatchedFeed, err)
	}
	if err != nil {
		return nil, err
	}

	l, err := newLedger(ctx, mu, timestamp)
	if err != nil {
		return nil, err
	}
	m, err := l.Resolve(ctx, a.Market, sample)
	if err != nil {
		return nil, err
	}
	result := &ResolveResult{
		WinningSide: m.WinningSide,
		Price:       m.ResolvedPrice,
		HigherTotal: m.HigherTotal,
		LowerTotal:  m.LowerTotal,
	}
	return result.Bytes(), nil
}

func (*Resolve) ComputeUnits(chain.Rules) uint64 {
	return ResolveComputeUnits
}

func (*Resolve) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *Resolve) Bytes() []byte {
	return marshal(consts.ResolveID, a, consts.MaxActionSize)
}

func UnmarshalResolve(b []byte) (chain.Action, error) {
	a := &Resolve{}
	if err := unmarshal(consts.ResolveID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*ResolveResult)(nil)

type ResolveResult struct {
	WinningSide consts.Side `serialize:"true" json:"winningSide"`
	Price       uint64      `serialize:"true" json:"price"`
	HigherTotal uint64      `serialize:"true" json:"higherTotal"`
	LowerTotal  uint64      `serialize:"true" json:"lowerTotal"`
}

func (*ResolveResult) GetTypeID() uint8 {
	return consts.ResolveID
}

func (r *ResolveResult) Bytes() []byte {
	return marshal(consts.ResolveID, r, MaxResultSize)
}

func UnmarshalResolveResult(b []byte) (codec.Typed, error) {
	r := &ResolveResult{}
	if err := unmarshal(consts.ResolveID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
