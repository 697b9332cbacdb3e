package genesis

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/ava-labs/avalanchego/ids"

	hgenesis "github.com/ava-labs/hypersdk/genesis"
)

// Template is the hand-edited TOML form of a genesis file. Addresses are
// bech32 and mints are cb58 strings.
type Template struct {
	OracleAuthority   string `toml:"oracle_authority"`
	MaxSampleAge      uint64 `toml:"max_sample_age"`
	MinMarketDuration uint64 `toml:"min_market_duration"`
	LockPeriod        uint64 `toml:"lock_period"`
	CustodyDeposit    uint64 `toml:"custody_deposit"`

	Native []TemplateBalance `toml:"native"`
	Assets []TemplateAsset   `toml:"assets"`
}

type TemplateBalance struct {
	Address string `toml:"address"`
	Balance uint64 `toml:"balance"`
}

type TemplateAsset struct {
	Address string `toml:"address"`
	Mint    string `toml:"mint"`
	Balance uint64 `toml:"balance"`
}

// LoadTemplate reads a TOML template from path.
func LoadTemplate(path string) (*Template, error) {
	t := &Template{}
	if _, err := toml.DecodeFile(path, t); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return t, nil
}

// DecodeTemplate reads a TOML template from r.
func DecodeTemplate(r io.Reader) (*Template, error) {
	t := &Template{}
	if _, err := toml.NewDecoder(r).Decode(t); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return t, nil
}

// File converts the template into a genesis document, validating every
// address and mint.
func (t *Template) File() (*File, error) {
	allocs := make([]*hgenesis.CustomAllocation, 0, len(t.Native))
	for i, n := range t.Native {
		addr, err := ParseAddress(n.Address)
		if err != nil {
			return nil, fmt.Errorf("native allocation %d: %w", i, err)
		}
		allocs = append(allocs, &hgenesis.CustomAllocation{Address: addr, Balance: n.Balance})
	}

	custom := &Custom{
		OracleAuthority:   t.OracleAuthority,
		MaxSampleAge:      t.MaxSampleAge,
		MinMarketDuration: t.MinMarketDuration,
		LockPeriod:        t.LockPeriod,
		CustodyDeposit:    t.CustodyDeposit,
	}
	for i, a := range t.Assets {
		mint, err := ids.FromString(a.Mint)
		if err != nil {
			return nil, fmt.Errorf("asset allocation %d: invalid mint %q: %w", i, a.Mint, err)
		}
		custom.Assets = append(custom.Assets, &AssetAllocation{
			Address: a.Address,
			Mint:    mint,
			Balance: a.Balance,
		})
	}
	if err := custom.Verify(); err != nil {
		return nil, err
	}
	return &File{DefaultGenesis: hgenesis.NewDefaultGenesis(allocs), Custom: custom}, nil
}
