// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workload

import (
	"context"
	"time"

	"github.com/ava-labs/hypersdk/api/jsonrpc"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/tests/workload"
	"github.com/stretchr/testify/require"

	"github.com/chokosabe/pricepredictionvm/actions"
	"github.com/chokosabe/pricepredictionvm/vm"
)

var _ workload.TxGenerator = (*TxGenerator)(nil)

// TxGenerator publishes a fresh price for one feed on every transaction, as
// an oracle keeper would.
type TxGenerator struct {
	authority chain.AuthFactory
	config    workload.TestNetworkConfiguration
	feedID    string
	price     uint64
}

func NewTxGenerator(authority chain.AuthFactory, config workload.TestNetworkConfiguration, feedID string, startPrice uint64) *TxGenerator {
	return &TxGenerator{
		authority: authority,
		config:    config,
		feedID:    feedID,
		price:     startPrice,
	}
}

func (g *TxGenerator) GenerateTx(ctx context.Context, uri string) (*chain.Transaction, workload.TxAssertion, error) {
	// TODO: cache the clients and rule factory per uri
	cli := jsonrpc.NewJSONRPCClient(uri)
	networkID, _, chainID, err := cli.Network(ctx)
	if err != nil {
		return nil, nil, err
	}
	_, ruleFactory, err := g.config.GenesisAndRuleFactory().Load(g.config.GenesisBytes(), nil, networkID, chainID)
	if err != nil {
		return nil, nil, err
	}
	unitPrices, err := cli.UnitPrices(ctx, true)
	if err != nil {
		return nil, nil, err
	}

	g.price++
	now := time.Now().UnixMilli()
	publish := &actions.PublishPrice{FeedID: g.feedID, Price: g.price, Timestamp: now}
	tx, err := chain.GenerateTransaction(
		ruleFactory,
		unitPrices,
		now,
		[]chain.Action{publish},
		g.authority,
	)
	if err != nil {
		return nil, nil, err
	}

	return tx, func(ctx context.Context, require *require.Assertions, uri string) {
		confirmPrice(ctx, require, uri, tx, publish)
	}, nil
}

func confirmPrice(ctx context.Context, require *require.Assertions, uri string, tx *chain.Transaction, publish *actions.PublishPrice) {
	outputs := WaitForOutputs(ctx, require, uri, tx.GetID())
	require.Len(outputs, 1)
	out, err := vm.OutputParser.Unmarshal(outputs[0])
	require.NoError(err)
	result, ok := out.(*actions.PublishPriceResult)
	require.True(ok)
	require.Equal(publish.Price, result.Price)
	require.Equal(publish.Timestamp, result.Timestamp)
}
