// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/spf13/cobra"

	"github.com/chokosabe/pricepredictionvm/storage"
)

var marketCmd = &cobra.Command{
	Use: "market",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var marketDecodeCmd = &cobra.Command{
	Use:   "decode [hex record]",
	Short: "Decode a stored market record",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		b, err := formatting.Decode(formatting.HexNC, args[0])
		if err != nil {
			return err
		}
		m, err := storage.UnmarshalMarket(b)
		if err != nil {
			return err
		}
		if err := addressField("creator", m.Creator); err != nil {
			return err
		}
		field("feed", m.FeedID)
		field("target price", m.TargetPrice)
		field("duration", m.MarketDuration)
		field("start", m.StartTime)
		field("expiry", m.Expiry())
		field("state", m.State)
		field("mint", m.Mint)
		if m.State == storage.StateResolved {
			field("winning side", m.WinningSide)
			field("resolved price", m.ResolvedPrice)
			field("higher total", m.HigherTotal)
			field("lower total", m.LowerTotal)
		}
		field("closed", m.Closed)
		return nil
	},
}

func init() {
	marketCmd.AddCommand(marketDecodeCmd)
}
