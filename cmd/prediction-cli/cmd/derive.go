// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/ava-labs/hypersdk/codec"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/derive"
	"github.com/chokosabe/pricepredictionvm/feed"
)

var (
	creatorFlag  string
	targetFlag   uint64
	durationFlag uint64
)

var deriveCmd = &cobra.Command{
	Use: "derive",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var deriveMarketCmd = &cobra.Command{
	Use:   "market [feed id]",
	Short: "Derive the market and pool addresses of a market tuple",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		creator, err := parseAddress(creatorFlag)
		if err != nil {
			return err
		}
		feedID, err := feed.Parse(args[0])
		if err != nil {
			return err
		}
		market, bump, err := derive.Market(creator, feedID, targetFlag, durationFlag, consts.Namespace)
		if err != nil {
			return err
		}
		log.Debug("derived market",
			zap.Stringer("creator", creator),
			zap.Uint64("targetPrice", targetFlag),
			zap.Uint64("marketDuration", durationFlag),
			zap.Uint8("bump", bump),
		)
		if err := addressField("market", market); err != nil {
			return err
		}
		field("bump", bump)
		return printPools(market)
	},
}

var derivePoolsCmd = &cobra.Command{
	Use:   "pools [market]",
	Short: "Derive the pool addresses of a market",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		market, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return printPools(market)
	},
}

func printPools(market codec.Address) error {
	for _, side := range []consts.Side{consts.Higher, consts.Lower} {
		pool, bump, err := derive.Pool(side, market, consts.Namespace)
		if err != nil {
			return err
		}
		log.Debug("derived pool", zap.Stringer("side", side), zap.Uint8("bump", bump))
		if err := addressField(side.String()+" pool", pool); err != nil {
			return err
		}
		field(side.String()+" bump", bump)
	}
	return nil
}

func init() {
	deriveMarketCmd.Flags().StringVar(&creatorFlag, "creator", "", "market creator address")
	deriveMarketCmd.Flags().Uint64Var(&targetFlag, "target", 0, "target price")
	deriveMarketCmd.Flags().Uint64Var(&durationFlag, "duration", consts.DefaultMinMarketDuration, "market duration in seconds")
	_ = deriveMarketCmd.MarkFlagRequired("creator")
	_ = deriveMarketCmd.MarkFlagRequired("target")

	deriveCmd.AddCommand(deriveMarketCmd, derivePoolsCmd)
}
