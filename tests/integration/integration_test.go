// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package integration_test

import (
	"context"
	"testing"

	"github.com/ava-labs/hypersdk/tests/registry"
	"github.com/ava-labs/hypersdk/vm/vmtest"
	"github.com/stretchr/testify/require"

	avasnow "github.com/ava-labs/avalanchego/snow"
	hvm "github.com/ava-labs/hypersdk/vm"

	_ "github.com/chokosabe/pricepredictionvm/tests"

	"github.com/chokosabe/pricepredictionvm/tests/workload"
	"github.com/chokosabe/pricepredictionvm/vm"
)

func TestIntegration(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	vmFactory := vm.NewFactory(hvm.WithManual())

	testingNetworkConfig, err := workload.NewTestNetworkConfig(0)
	r.NoError(err)

	testNetwork := vmtest.NewTestNetwork(
		ctx,
		t,
		vmFactory,
		testingNetworkConfig.GenesisAndRuleFactory(),
		2,
		testingNetworkConfig.AuthFactories(),
		testingNetworkConfig.GenesisBytes(),
		nil,
		nil,
	)
	testNetwork.SetState(ctx, avasnow.NormalOp)
	defer testNetwork.Shutdown(ctx)

	for testRegistry := range registry.GetTestsRegistries() {
		for _, test := range testRegistry.List() {
			t.Run(test.Name, func(t *testing.T) {
				test.Fnc(t, testNetwork)
			})
		}
	}
}
