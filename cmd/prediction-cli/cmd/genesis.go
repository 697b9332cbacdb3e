// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chokosabe/pricepredictionvm/genesis"
)

var genesisOut string

var genesisCmd = &cobra.Command{
	Use: "genesis",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var genesisGenerateCmd = &cobra.Command{
	Use:   "generate [template.toml]",
	Short: "Render a TOML genesis template into a genesis file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		tmpl, err := genesis.LoadTemplate(args[0])
		if err != nil {
			return err
		}
		file, err := tmpl.File()
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(genesisOut, b, 0o600); err != nil {
			return err
		}
		log.Info("wrote genesis",
			zap.String("path", genesisOut),
			zap.Int("nativeAllocations", len(file.CustomAllocation)),
			zap.Int("assetAllocations", len(file.Custom.Assets)),
		)
		return nil
	},
}

func init() {
	genesisGenerateCmd.Flags().StringVar(&genesisOut, "out", "genesis.json", "output path")
	genesisCmd.AddCommand(genesisGenerateCmd)
}
