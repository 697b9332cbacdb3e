// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/ava-labs/hypersdk/codec"
	"github.com/spf13/cobra"

	"github.com/chokosabe/pricepredictionvm/genesis"
)

var addressCmd = &cobra.Command{
	Use: "address",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var addressEncodeCmd = &cobra.Command{
	Use:   "encode [hex address]",
	Short: "Convert a hex address to bech32",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		addr, err := codec.StringToAddress(args[0])
		if err != nil {
			return err
		}
		return addressField("address", addr)
	},
}

var addressDecodeCmd = &cobra.Command{
	Use:   "decode [bech32 address]",
	Short: "Convert a bech32 address to hex",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		addr, err := genesis.ParseAddress(args[0])
		if err != nil {
			return err
		}
		field("address", addr)
		return nil
	},
}

func init() {
	addressCmd.AddCommand(addressEncodeCmd, addressDecodeCmd)
}
