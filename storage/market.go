package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/feed"
)

// MarketState is the lifecycle state of a market. The zero value is never
// persisted; a missing record is an uninitialized market.
type MarketState uint8

const (
	StateUninitialized     MarketState = 0
	StateInitializedMarket MarketState = 1
	StatePoolsInitialized  MarketState = 2
	StateResolved          MarketState = 3
	StateCancelled         MarketState = 4
)

func (s MarketState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitializedMarket:
		return "InitializedMarket"
	case StatePoolsInitialized:
		return "PoolsInitialized"
	case StateResolved:
		return "Resolved"
	case StateCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("UnknownMarketState:%d", s)
	}
}

// Terminal reports whether no transition leaves s.
func (s MarketState) Terminal() bool {
	return s == StateResolved || s == StateCancelled
}

const (
	MarketVersion byte = 1

	// MarketSize is the fixed encoded size of a version 1 market record.
	MarketSize = 1 + codec.AddressLen + feed.IDLen + 3*8 + 4 + ids.IDLen + 1 + 4*8 + 1
)

var (
	ErrMarketNotFound      = errors.New("market not found")
	ErrUnsupportedVersion  = errors.New("unsupported record version")
	ErrInvalidRecordLength = errors.New("invalid record length")

	MarketChunks = Chunks(MarketSize)
)

// Market is the persisted record of a binary price market.
// Key: MarketPrefix | market address.
type Market struct {
	Creator        codec.Address `json:"creator"`
	FeedID         feed.ID       `json:"feedId"`
	TargetPrice    uint64        `json:"targetPrice"`
	MarketDuration uint64        `json:"marketDuration"` // seconds
	StartTime      int64         `json:"startTime"`      // unix ms

	State          MarketState `json:"state"`
	Bump           uint8       `json:"bump"`
	HigherPoolBump uint8       `json:"higherPoolBump"`
	LowerPoolBump  uint8       `json:"lowerPoolBump"`
	Mint           ids.ID      `json:"mint"`

	// Settlement snapshot, written once on resolve.
	WinningSide   consts.Side `json:"winningSide"`
	ResolvedPrice uint64      `json:"resolvedPrice"`
	ResolvedAt    int64       `json:"resolvedAt"`
	HigherTotal   uint64      `json:"higherTotal"`
	LowerTotal    uint64      `json:"lowerTotal"`

	// Closed is set once the pool custody accounts have been closed.
	Closed bool `json:"closed"`
}

// Expiry returns the unix ms deadline of the market. Callers validate that
// the duration fits when the market is created.
func (m *Market) Expiry() int64 {
	return m.StartTime + int64(m.MarketDuration)*1000
}

// PoolTotal returns the snapshotted balance of side.
func (m *Market) PoolTotal(side consts.Side) uint64 {
	if side == consts.Higher {
		return m.HigherTotal
	}
	return m.LowerTotal
}

// PoolBump returns the stored bump of side's pool.
func (m *Market) PoolBump(side consts.Side) uint8 {
	if side == consts.Higher {
		return m.HigherPoolBump
	}
	return m.LowerPoolBump
}

// Marshal encodes m in the fixed version 1 layout.
func (m *Market) Marshal() ([]byte, error) {
	p := codec.NewWriter(MarketSize, MarketSize)
	p.PackByte(MarketVersion)
	p.PackFixedBytes(m.Creator[:])
	p.PackFixedBytes(m.FeedID[:])
	p.PackUint64(m.TargetPrice)
	p.PackUint64(m.MarketDuration)
	p.PackUint64(uint64(m.StartTime))
	p.PackByte(byte(m.State))
	p.PackByte(m.Bump)
	p.PackByte(m.HigherPoolBump)
	p.PackByte(m.LowerPoolBump)
	p.PackFixedBytes(m.Mint[:])
	p.PackByte(byte(m.WinningSide))
	p.PackUint64(m.ResolvedPrice)
	p.PackUint64(uint64(m.ResolvedAt))
	p.PackUint64(m.HigherTotal)
	p.PackUint64(m.LowerTotal)
	p.PackBool(m.Closed)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// UnmarshalMarket decodes a market record, rejecting unknown versions.
func UnmarshalMarket(b []byte) (*Market, error) {
	if len(b) == 0 {
		return nil, ErrInvalidRecordLength
	}
	if b[0] != MarketVersion {
		return nil, fmt.Errorf("%w: market version %d", ErrUnsupportedVersion, b[0])
	}
	if len(b) != MarketSize {
		return nil, fmt.Errorf("%w: market has %d bytes, expected %d", ErrInvalidRecordLength, len(b), MarketSize)
	}

	p := codec.NewReader(b, MarketSize)
	m := &Market{}
	p.UnpackByte() // version
	p.UnpackAddress(&m.Creator)
	UnpackFixed(p, m.FeedID[:])
	m.TargetPrice = p.UnpackUint64(false)
	m.MarketDuration = p.UnpackUint64(false)
	m.StartTime = int64(p.UnpackUint64(false))
	m.State = MarketState(p.UnpackByte())
	m.Bump = p.UnpackByte()
	m.HigherPoolBump = p.UnpackByte()
	m.LowerPoolBump = p.UnpackByte()
	UnpackFixed(p, m.Mint[:])
	m.WinningSide = consts.Side(p.UnpackByte())
	m.ResolvedPrice = p.UnpackUint64(false)
	m.ResolvedAt = int64(p.UnpackUint64(false))
	m.HigherTotal = p.UnpackUint64(false)
	m.LowerTotal = p.UnpackUint64(false)
	m.Closed = p.UnpackBool()
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("failed to unpack market: %w", err)
	}
	return m, nil
}

// MarketKey generates the state key for a market address.
func MarketKey(market codec.Address) []byte {
	return Key(MarketPrefix, MarketChunks, market[:])
}

// GetMarket retrieves a market by its address.
func GetMarket(ctx context.Context, im state.Immutable, market codec.Address) (*Market, error) {
	v, err := im.GetValue(ctx, MarketKey(market))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, market)
	}
	if err != nil {
		return nil, err
	}
	m, err := UnmarshalMarket(v)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", market, err)
	}
	return m, nil
}

// MarketExists reports whether a record occupies the market address.
func MarketExists(ctx context.Context, im state.Immutable, market codec.Address) (bool, error) {
	_, err := im.GetValue(ctx, MarketKey(market))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetMarket stores a market at its address.
func SetMarket(ctx context.Context, mu state.Mutable, market codec.Address, m *Market) error {
	b, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal market %s: %w", market, err)
	}
	return mu.Insert(ctx, MarketKey(market), b)
}

// UnpackFixed reads len(dst) bytes into dst. Unlike UnpackAddress and
// UnpackID it accepts an all-zero field.
func UnpackFixed(p *codec.Packer, dst []byte) {
	p.UnpackFixedBytes(len(dst), &dst)
}
