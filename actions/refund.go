package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
)

var _ chain.Action = (*Refund)(nil)

// Refund returns the actor's stakes from a cancelled market.
type Refund struct {
	Market codec.Address `serialize:"true" json:"market"`
	Mint   ids.ID        `serialize:"true" json:"mint"`
}

func (*Refund) GetTypeID() uint8 {
	return consts.RefundID
}

func (a *Refund) StateKeys(actor codec.Address, _ ids.ID) state.Keys {
	return state.Keys(settlementKeys(a.Market, a.Mint, actor))
}

func (a *Refund) Execute(
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
	refunded, err := l.RefundOnCancel(ctx, actor, a.Market, a.Mint)
	if err != nil {
		return nil, err
	}
	result := &RefundResult{Refunded: refunded}
	return result.Bytes(), nil
}

func (*Refund) ComputeUnits(chain.Rules) uint64 {
	return RefundComputeUnits
}

func (*Refund) ValidRange(chain.Rules) (int64, int64) {
	return -1, -1
}

func (a *Refund) Bytes() []byte {
	return marshal(consts.RefundID, a, consts.MaxActionSize)
}

func UnmarshalRefund(b []byte) (chain.Action, error) {
	a := &Refund{}
	if err := unmarshal(consts.RefundID, b, a); err != nil {
		return nil, err
	}
	return a, nil
}

var _ codec.Typed = (*RefundResult)(nil)

type RefundResult struct {
	Refunded uint64 `serialize:"true" json:"refunded"`
}

func (*RefundResult) GetTypeID() uint8 {
	return consts.RefundID
}

func (r *RefundResult) Bytes() []byte {
	return marshal(consts.RefundID, r, MaxResultSize)
}

func UnmarshalRefundResult(b []byte) (codec.Typed, error) {
	r := &RefundResult{}
	if err := unmarshal(consts.RefundID, b, r); err != nil {
		return nil, err
	}
	return r, nil
}
