// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tests

import (
	"context"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/tests/registry"
	"github.com/stretchr/testify/require"

	hstate "github.com/ava-labs/hypersdk/api/state"
	tworkload "github.com/ava-labs/hypersdk/tests/workload"

	"github.com/chokosabe/pricepredictionvm/actions"
	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/custody"
	"github.com/chokosabe/pricepredictionvm/derive"
	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/tests/workload"
	"github.com/chokosabe/pricepredictionvm/vm"
)

const (
	solFeed = "0xef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d"
	ethFeed = "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"
)

// TestsRegistry is run by the integration and e2e suites against a live
// network.
var TestsRegistry = &registry.Registry{}

var _ = registry.Register(TestsRegistry, "Market Lifecycle", func(t require.TestingT, tn tworkload.TestNetwork) {
	r := require.New(t)
	ctx := context.Background()
	keys := tn.Configuration().AuthFactories()
	creator, alice, bob, authority := keys[workload.Creator], keys[workload.Alice], keys[workload.Bob], keys[workload.Authority]
	mint := workload.StakeMint

	id, err := feed.Parse(solFeed)
	r.NoError(err)
	market, _, err := derive.Market(creator.Address(), id, 140, 2, consts.Namespace)
	r.NoError(err)

	outputs := confirm(ctx, r, tn, creator,
		&actions.InitializeMarket{FeedID: solFeed, TargetPrice: 140, MarketDuration: 2},
		&actions.InitializePools{Market: market, Mint: mint},
	)
	r.Len(outputs, 2)
	created := parseOutput[*actions.InitializeMarketResult](r, outputs[0])
	r.Equal(market, created.Market)

	out := parseOutput[*actions.PlaceBetResult](r, confirm(ctx, r, tn, alice,
		&actions.PlaceBet{Market: market, Side: consts.Higher, Mint: mint, Amount: 100},
	)[0])
	r.Equal(uint64(100), out.BetTotal)
	confirm(ctx, r, tn, bob, &actions.PlaceBet{Market: market, Side: consts.Lower, Mint: mint, Amount: 50})

	// Samples must be taken at or after expiry.
	if wait := created.Expiry - time.Now().UnixMilli(); wait >= 0 {
		time.Sleep(time.Duration(wait+50) * time.Millisecond)
	}
	confirm(ctx, r, tn, authority, &actions.PublishPrice{FeedID: solFeed, Price: 141, Timestamp: created.Expiry})

	resolved := parseOutput[*actions.ResolveResult](r, confirm(ctx, r, tn, bob,
		&actions.Resolve{Market: market, FeedID: solFeed, Mint: mint},
	)[0])
	r.Equal(&actions.ResolveResult{WinningSide: consts.Higher, Price: 141, HigherTotal: 100, LowerTotal: 50}, resolved)

	redeemed := parseOutput[*actions.RedeemResult](r, confirm(ctx, r, tn, alice,
		&actions.Redeem{Market: market, Mint: mint},
	)[0])
	r.Equal(uint64(150), redeemed.Payout)

	uri := tn.URIs()[0]
	r.Equal(workload.InitialStake+50, stakeBalance(ctx, r, uri, alice.Address(), mint))
	r.Equal(workload.InitialStake-50, stakeBalance(ctx, r, uri, bob.Address(), mint))
})

var _ = registry.Register(TestsRegistry, "Oracle Price Updates", func(t require.TestingT, tn tworkload.TestNetwork) {
	r := require.New(t)
	ctx := context.Background()
	authority := tn.Configuration().AuthFactories()[workload.Authority]
	g := workload.NewTxGenerator(authority, tn.Configuration(), ethFeed, 3_000)

	uri := tn.URIs()[0]
	for range 3 {
		tx, assertion, err := g.GenerateTx(ctx, uri)
		r.NoError(err)
		r.NoError(tn.ConfirmTxs(ctx, []*chain.Transaction{tx}))
		assertion(ctx, r, uri)
	}
})

func confirm(ctx context.Context, r *require.Assertions, tn tworkload.TestNetwork, factory chain.AuthFactory, acts ...chain.Action) [][]byte {
	tx, err := tn.GenerateTx(ctx, acts, factory)
	r.NoError(err)
	r.NoError(tn.ConfirmTxs(ctx, []*chain.Transaction{tx}))
	return workload.WaitForOutputs(ctx, r, tn.URIs()[0], tx.GetID())
}

func parseOutput[T any](r *require.Assertions, b []byte) T {
	out, err := vm.OutputParser.Unmarshal(b)
	r.NoError(err)
	typed, ok := out.(T)
	r.True(ok, "unexpected output %T", out)
	return typed
}

func stakeBalance(ctx context.Context, r *require.Assertions, uri string, holder codec.Address, mint ids.ID) uint64 {
	values, errs, err := hstate.NewJSONRPCStateClient(uri).ReadState(ctx, [][]byte{custody.BalanceKey(holder, mint)})
	r.NoError(err)
	r.Len(values, 1)
	r.NoError(errs[0])
	bal, err := database.ParseUInt64(values[0])
	r.NoError(err)
	return bal
}
