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
	ParamsVersion byte = 1

	ParamsSize = 1 + codec.AddressLen + 4*8
)

var ParamsChunks = Chunks(ParamsSize)

// Params are the chain-wide market parameters. Durations are in seconds.
type Params struct {
	OracleAuthority   codec.Address `json:"oracleAuthority"`
	MaxSampleAge      uint64        `json:"maxSampleAge"`
	MinMarketDuration uint64        `json:"minMarketDuration"`
	LockPeriod        uint64        `json:"lockPeriod"`
	CustodyDeposit    uint64        `json:"custodyDeposit"`
}

// DefaultParams has no oracle authority, so nothing can publish prices until
// genesis names one.
func DefaultParams() *Params {
	return &Params{
		MaxSampleAge:      consts.DefaultMaxSampleAge,
		MinMarketDuration: consts.DefaultMinMarketDuration,
		LockPeriod:        consts.DefaultLockPeriod,
		CustodyDeposit:    consts.DefaultCustodyDeposit,
	}
}

func (p *Params) Marshal() ([]byte, error) {
	w := codec.NewWriter(ParamsSize, ParamsSize)
	w.PackByte(ParamsVersion)
	w.PackFixedBytes(p.OracleAuthority[:])
	w.PackUint64(p.MaxSampleAge)
	w.PackUint64(p.MinMarketDuration)
	w.PackUint64(p.LockPeriod)
	w.PackUint64(p.CustodyDeposit)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func UnmarshalParams(raw []byte) (*Params, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidRecordLength
	}
	if raw[0] != ParamsVersion {
		return nil, fmt.Errorf("%w: params version %d", ErrUnsupportedVersion, raw[0])
	}
	if len(raw) != ParamsSize {
		return nil, fmt.Errorf("%w: params has %d bytes, expected %d", ErrInvalidRecordLength, len(raw), ParamsSize)
	}
	r := codec.NewReader(raw, ParamsSize)
	p := &Params{}
	r.UnpackByte()
	UnpackFixed(r, p.OracleAuthority[:])
	p.MaxSampleAge = r.UnpackUint64(false)
	p.MinMarketDuration = r.UnpackUint64(false)
	p.LockPeriod = r.UnpackUint64(false)
	p.CustodyDeposit = r.UnpackUint64(false)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to unpack params: %w", err)
	}
	return p, nil
}

func ParamsKey() []byte {
	return Key(ParamsPrefix, ParamsChunks)
}

// GetParams returns the stored params, or the defaults if genesis wrote none.
func GetParams(ctx context.Context, im state.Immutable) (*Params, error) {
	v, err := im.GetValue(ctx, ParamsKey())
	if errors.Is(err, database.ErrNotFound) {
		return DefaultParams(), nil
	}
	if err != nil {
		return nil, err
	}
	return UnmarshalParams(v)
}

func SetParams(ctx context.Context, mu state.Mutable, p *Params) error {
	v, err := p.Marshal()
	if err != nil {
		return err
	}
	return mu.Insert(ctx, ParamsKey(), v)
}
