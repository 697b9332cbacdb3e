package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/oracle"
	"github.com/chokosabe/pricepredictionvm/storage"
)

var _ chain.Action = (*PublishPrice)(nil)

// PublishPrice records a price sample for FeedID. Only the oracle authority
// named at genesis may submit it.
type PublishPrice struct {
	FeedID    string `serialize:"true" json:"feedId"`
	Price     uint64 `serialize:"true" json:"price"`
	Timestamp int64  `serialize:"true" json:"timestamp"`
}

func (*PublishPrice) GetTypeID() uint8 {
	return consts.PublishPriceID
}

func (a *PublishPrice) StateKeys(codec.Address, ids.ID) state.Keys {
	k := newKeys()
	if id, err := feed.Parse(a.FeedID); err == nil {
		k.add(oracle.SampleKey(id), state.All)
	}
	return state.Keys(k)
}

func (a *PublishPrice) Execute(
	ctx context.Context,
	_ chain.Rules,
	mu state.Mutable,
	timestamp int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	id, err := feed.Parse(a.FeedID)
	if err != nil {
		return nil, err
	}
	params, err := storage.GetParams(ctx, mu)
	if err != nil {
		return nil, err
	}
	s := &oracle.Sample{FeedID: id, Price: a.Price, Timestamp: a.Timestamp}
	if err := oracle.Publish(ctx, mu, params.OracleAuthority, actor, s, timestamp); err != nil {
		return nil, err
	}
	result := &PublishPriceResult{Price: a.Price, Timestamp: a.Timestamp}
	return result.Bytes(), nil
}

func (*PublishPrice) ComputeUnits(chain.Rules) uint64 {
	return PublishPriceComputeUnits
}

func (*PublishPrice) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *PublishPrice) Bytes() []byte {
	return marshal(consts.PublishPriceID, a, consts.MaxActionSize)
}

func UnmarshalPublishPrice(b []byte) (chain.Action, error) {
	a := &PublishPrice{}
	if err := unmarshal(consts.PublishPriceID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*PublishPriceResult)(nil)

type PublishPriceResult struct {
	Price     uint64 `serialize:"true" json:"price"`
	Timestamp int64  `serialize:"true" json:"timestamp"`
}

func (*PublishPriceResult) GetTypeID() uint8 {
	return consts.PublishPriceID
}

func (r *PublishPriceResult) Bytes() []byte {
	return marshal(consts.PublishPriceID, r, MaxResultSize)
}

func UnmarshalPublishPriceResult(b []byte) (codec.Typed, error) {
	r := &PublishPriceResult{}
	if err := unmarshal(consts.PublishPriceID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
