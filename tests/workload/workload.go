// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workload

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/api/indexer"
	"github.com/ava-labs/hypersdk/auth"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/crypto/ed25519"
	"github.com/ava-labs/hypersdk/tests/workload"
	"github.com/stretchr/testify/require"

	hgenesis "github.com/ava-labs/hypersdk/genesis"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/genesis"
	"github.com/chokosabe/pricepredictionvm/vm"
)

const (
	// Roles of the prefunded keys returned by AuthFactories.
	Creator = iota
	Alice
	Bob
	Authority
	numKeys

	initialBalance uint64 = 10_000_000_000_000
	InitialStake   uint64 = 1_000
	Deposit        uint64 = 5

	txCheckInterval = 100 * time.Millisecond
)

// StakeMint is the staking token Alice and Bob hold at genesis.
var StakeMint = ids.ID{'s', 't', 'a', 'k', 'e'}

// NewTestNetworkConfig builds a genesis with prefunded keys, an oracle
// authority and short market durations so tests need not wait long.
func NewTestNetworkConfig(minBlockGap time.Duration) (workload.DefaultTestNetworkConfiguration, error) {
	factories := make([]chain.AuthFactory, 0, numKeys)
	allocs := make([]*hgenesis.CustomAllocation, 0, numKeys)
	for range numKeys {
		priv, err := ed25519.GeneratePrivateKey()
		if err != nil {
			return workload.DefaultTestNetworkConfiguration{}, err
		}
		f := auth.NewED25519Factory(priv)
		factories = append(factories, f)
		allocs = append(allocs, &hgenesis.CustomAllocation{Address: f.Address(), Balance: initialBalance})
	}

	authority, err := genesis.FormatAddress(factories[Authority].Address())
	if err != nil {
		return workload.DefaultTestNetworkConfiguration{}, err
	}
	custom := &genesis.Custom{
		OracleAuthority:   authority,
		MinMarketDuration: 1,
		LockPeriod:        1,
		CustodyDeposit:    Deposit,
	}
	for _, holder := range []int{Alice, Bob} {
		addr, err := genesis.FormatAddress(factories[holder].Address())
		if err != nil {
			return workload.DefaultTestNetworkConfiguration{}, err
		}
		custom.Assets = append(custom.Assets, &genesis.AssetAllocation{
			Address: addr,
			Mint:    StakeMint,
			Balance: InitialStake,
		})
	}

	gen := hgenesis.NewDefaultGenesis(allocs)
	gen.Rules.MinBlockGap = minBlockGap.Milliseconds()
	gen.Rules.MinEmptyBlockGap = minBlockGap.Milliseconds()
	genesisBytes, err := json.Marshal(&genesis.File{DefaultGenesis: gen, Custom: custom})
	if err != nil {
		return workload.DefaultTestNetworkConfiguration{}, err
	}

	return workload.NewDefaultTestNetworkConfiguration(
		consts.Name,
		&genesis.Factory{},
		genesisBytes,
		vm.Parser,
		factories,
	), nil
}

// WaitForOutputs waits until uri has indexed txID, requires it to have
// succeeded and returns its action outputs.
func WaitForOutputs(ctx context.Context, require *require.Assertions, uri string, txID ids.ID) [][]byte {
	indexerCli := indexer.NewClient(uri)
	success, _, err := indexerCli.WaitForTransaction(ctx, txCheckInterval, txID)
	require.NoError(err)
	res, found, err := indexerCli.GetTxResults(ctx, txID)
	require.NoError(err)
	require.True(found)
	require.True(success, "tx %s failed: %s", txID, res.Result.Error)
	return res.Result.Outputs
}
