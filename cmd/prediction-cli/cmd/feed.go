// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chokosabe/pricepredictionvm/feed"
)

var feedCmd = &cobra.Command{
	Use: "feed",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var feedValidateCmd = &cobra.Command{
	Use:   "validate [feed id]",
	Short: "Check a feed identifier and print its state key hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := feed.Parse(args[0])
		if err != nil {
			return err
		}
		field("feed", id)
		field("hash", id.Hash())
		return nil
	},
}

func init() {
	feedCmd.AddCommand(feedValidateCmd)
}
