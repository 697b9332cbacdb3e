package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
)

const (
	BetVersion byte = 1

	BetSize = 1 + 2*codec.AddressLen + 1 + 8 + 1
)

var BetChunks = Chunks(BetSize)

// Bet is a bettor's accumulated stake on one side of a market.
// Key: BetPrefix | market | owner | side.
type Bet struct {
	Market  codec.Address `json:"market"`
	Owner   codec.Address `json:"owner"`
	Side    consts.Side   `json:"side"`
	Amount  uint64        `json:"amount"`
	Settled bool          `json:"settled"`
}

func (b *Bet) Marshal() ([]byte, error) {
	p := codec.NewWriter(BetSize, BetSize)
	p.PackByte(BetVersion)
	p.PackFixedBytes(b.Market[:])
	p.PackFixedBytes(b.Owner[:])
	p.PackByte(byte(b.Side))
	p.PackUint64(b.Amount)
	p.PackBool(b.Settled)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

func UnmarshalBet(raw []byte) (*Bet, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidRecordLength
	}
	if raw[0] != BetVersion {
		return nil, fmt.Errorf("%w: bet version %d", ErrUnsupportedVersion, raw[0])
	}
	if len(raw) != BetSize {
		return nil, fmt.Errorf("%w: bet has %d bytes, expected %d", ErrInvalidRecordLength, len(raw), BetSize)
	}

	p := codec.NewReader(raw, BetSize)
	b := &Bet{}
	p.UnpackByte()
	p.UnpackAddress(&b.Market)
	p.UnpackAddress(&b.Owner)
	b.Side = consts.Side(p.UnpackByte())
	b.Amount = p.UnpackUint64(false)
	b.Settled = p.UnpackBool()
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("failed to unpack bet: %w", err)
	}
	return b, nil
}

// BetKey generates the state key for owner's bet on side of market.
func BetKey(market codec.Address, owner codec.Address, side consts.Side) []byte {
	return Key(BetPrefix, BetChunks, market[:], owner[:], []byte{byte(side)})
}

// GetBet returns the stored bet, or nil if owner never bet on side.
func GetBet(ctx context.Context, im state.Immutable, market codec.Address, owner codec.Address, side consts.Side) (*Bet, error) {
	v, err := im.GetValue(ctx, BetKey(market, owner, side))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return UnmarshalBet(v)
}

func SetBet(ctx context.Context, mu state.Mutable, b *Bet) error {
	v, err := b.Marshal()
	if err != nil {
		return err
	}
	return mu.Insert(ctx, BetKey(b.Market, b.Owner, b.Side), v)
}
