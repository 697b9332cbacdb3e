// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/version"
)

const (
	Name   = "pricepredictionvm"
	Symbol = "PPRED"

	// HRP is the bech32 human readable part used for addresses in genesis and the CLI.
	HRP = "ppred"

	// MaxActionSize bounds the packed size of any action.
	MaxActionSize = 1024
)

// Action and result type IDs. Results reuse the ID of the action that produced them.
const (
	InitializeMarketID uint8 = iota
	InitializePoolsID
	PlaceBetID
	ResolveID
	RedeemID
	CancelMarketID
	RefundID
	FinalizeMarketID
	PublishPriceID
)

// Seeds mixed into derived addresses.
const (
	HigherPoolSeed = "higher_pool"
	LowerPoolSeed  = "lower_pool"
	PDAMarker      = "ProgramDerivedAddress"
)

// Side selects one of the two pools of a market.
type Side uint8

const (
	Higher Side = 0
	Lower  Side = 1
)

func (s Side) String() string {
	switch s {
	case Higher:
		return "Higher"
	case Lower:
		return "Lower"
	default:
		return fmt.Sprintf("UnknownSide:%d", s)
	}
}

// Valid reports whether s names a pool.
func (s Side) Valid() bool {
	return s == Higher || s == Lower
}

// Opposite returns the other pool.
func (s Side) Opposite() Side {
	if s == Higher {
		return Lower
	}
	return Higher
}

// Seed returns the pool role tag for the side.
func (s Side) Seed() (string, error) {
	switch s {
	case Higher:
		return HigherPoolSeed, nil
	case Lower:
		return LowerPoolSeed, nil
	default:
		return "", fmt.Errorf("unknown side %d", s)
	}
}

// DerivedAddressTypeID is the codec.Address type byte for program derived
// accounts. Key-based auth types use 0x00-0x02.
const DerivedAddressTypeID uint8 = 0xD0

// Defaults used when genesis does not override them. Times are in seconds.
const (
	DefaultMaxSampleAge      uint64 = 60
	DefaultMinMarketDuration uint64 = 1200
	DefaultLockPeriod        uint64 = 230_400
	DefaultCustodyDeposit    uint64 = 0
)

var (
	ID ids.ID

	// Namespace is the program namespace folded into every derived address.
	Namespace = []byte(Name)
)

func init() {
	b := make([]byte, ids.IDLen)
	copy(b, []byte(Name))
	vmID, err := ids.ToID(b)
	if err != nil {
		panic(err)
	}
	ID = vmID
}

var Version = &version.Semantic{
	Major: 0,
	Minor: 1,
	Patch: 0,
}
