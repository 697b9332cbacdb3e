package genesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/state"

	safemath "github.com/ava-labs/avalanchego/utils/math"
	hgenesis "github.com/ava-labs/hypersdk/genesis"

	"github.com/chokosabe/pricepredictionvm/custody"
	"github.com/chokosabe/pricepredictionvm/storage"
)

var ErrDurationOverflow = errors.New("duration overflows milliseconds")

var (
	_ hgenesis.Genesis               = (*Genesis)(nil)
	_ hgenesis.GenesisAndRuleFactory = (*Factory)(nil)
)

// Custom is the VM specific section of the genesis file. Zero values keep
// the defaults.
type Custom struct {
	OracleAuthority   string             `json:"oracleAuthority,omitempty"`
	MaxSampleAge      uint64             `json:"maxSampleAge,omitempty"`
	MinMarketDuration uint64             `json:"minMarketDuration,omitempty"`
	LockPeriod        uint64             `json:"lockPeriod,omitempty"`
	CustodyDeposit    uint64             `json:"custodyDeposit,omitempty"`
	Assets            []*AssetAllocation `json:"assets,omitempty"`
}

// AssetAllocation seeds a balance of a staking token.
type AssetAllocation struct {
	Address string `json:"address"`
	Mint    ids.ID `json:"mint"`
	Balance uint64 `json:"balance"`
}

// Params resolves the chain params, checking the oracle authority address.
func (c *Custom) Params() (*storage.Params, error) {
	p := storage.DefaultParams()
	if c.OracleAuthority != "" {
		addr, err := ParseAddress(c.OracleAuthority)
		if err != nil {
			return nil, fmt.Errorf("oracle authority: %w", err)
		}
		p.OracleAuthority = addr
	}
	if c.MaxSampleAge != 0 {
		p.MaxSampleAge = c.MaxSampleAge
	}
	if c.MinMarketDuration != 0 {
		p.MinMarketDuration = c.MinMarketDuration
	}
	if c.LockPeriod != 0 {
		p.LockPeriod = c.LockPeriod
	}
	p.CustodyDeposit = c.CustodyDeposit
	for _, d := range []struct {
		name    string
		seconds uint64
	}{
		{"max sample age", p.MaxSampleAge},
		{"min market duration", p.MinMarketDuration},
		{"lock period", p.LockPeriod},
	} {
		if _, err := safemath.Mul(d.seconds, 1000); err != nil {
			return nil, fmt.Errorf("%w: %s of %d seconds", ErrDurationOverflow, d.name, d.seconds)
		}
	}
	return p, nil
}

// Verify checks every address before any state is written.
func (c *Custom) Verify() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	for i, a := range c.Assets {
		if _, err := ParseAddress(a.Address); err != nil {
			return fmt.Errorf("asset allocation %d: %w", i, err)
		}
	}
	return nil
}

// File is the full genesis document: HyperSDK's default genesis plus the
// custom section.
type File struct {
	*hgenesis.DefaultGenesis
	Custom *Custom `json:"custom,omitempty"`
}

// Genesis wraps the default genesis and also writes params and asset
// allocations.
type Genesis struct {
	hgenesis.Genesis
	Custom *Custom
}

func (g *Genesis) InitializeState(ctx context.Context, tracer trace.Tracer, mu state.Mutable, bh chain.BalanceHandler) error {
	if err := g.Genesis.InitializeState(ctx, tracer, mu, bh); err != nil {
		return err
	}
	params, err := g.Custom.Params()
	if err != nil {
		return err
	}
	if err := storage.SetParams(ctx, mu, params); err != nil {
		return fmt.Errorf("failed to store params: %w", err)
	}

	tokens := custody.NewLedger(mu, 0)
	for _, a := range g.Custom.Assets {
		addr, err := ParseAddress(a.Address)
		if err != nil {
			return err
		}
		if err := tokens.Credit(ctx, addr, a.Mint, a.Balance); err != nil {
			return fmt.Errorf("failed to allocate %s to %s: %w", a.Mint, a.Address, err)
		}
	}
	return nil
}

// Factory loads the genesis with the default rules.
type Factory struct {
	base hgenesis.DefaultGenesisFactory
}

func (f *Factory) Load(genesisBytes []byte, upgradeBytes []byte, networkID uint32, chainID ids.ID) (hgenesis.Genesis, chain.RuleFactory, error) {
	g, rules, err := f.base.Load(genesisBytes, upgradeBytes, networkID, chainID)
	if err != nil {
		return nil, nil, err
	}
	var file struct {
		Custom *Custom `json:"custom"`
	}
	if err := json.Unmarshal(genesisBytes, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse custom genesis: %w", err)
	}
	if file.Custom == nil {
		file.Custom = &Custom{}
	}
	if err := file.Custom.Verify(); err != nil {
		return nil, nil, err
	}
	return &Genesis{Genesis: g, Custom: file.Custom}, rules, nil
}
