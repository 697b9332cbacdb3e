// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/ulimit"
	"github.com/ava-labs/avalanchego/vms/rpcchainvm"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/snow"
	"github.com/spf13/cobra"

	"github.com/chokosabe/pricepredictionvm/cmd/pricepredictionvm/version"
	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/vm"
)

var rootCmd = &cobra.Command{
	Use:   consts.Name,
	Short: "Binary price prediction market VM",
	Long: `Serves the price prediction VM to avalanchego over rpcchainvm.

Markets take HIGHER and LOWER stakes against a target price and settle
against oracle samples published on chain. Install the binary in the
plugin directory under the name printed by "version --id".`,
	SuggestFor: []string{"ppredvm", "predictionvm"},
	RunE:       runFunc,
}

func init() {
	cobra.EnablePrefixMatching = true
}

func init() {
	rootCmd.AddCommand(
		version.NewCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", consts.Name, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func runFunc(*cobra.Command, []string) error {
	if err := ulimit.Set(ulimit.DefaultFDLimit, logging.NoLog{}); err != nil {
		return fmt.Errorf("%w: failed to set fd limit correctly", err)
	}

	v, err := vm.New()
	if err != nil {
		return err
	}

	return rpcchainvm.Serve(context.TODO(), snow.NewSnowVM[*chain.ExecutionBlock, *chain.OutputBlock, *chain.OutputBlock](consts.Version.String(), v))
}
