// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	log      logging.Logger = logging.NoLog{}

	rootCmd = &cobra.Command{
		Use:        "prediction-cli",
		Short:      "Price prediction market client",
		SuggestFor: []string{"prediction-cli", "predictioncli"},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, err := logging.ToLevel(logLevel)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidArgs, logLevel)
			}
			log = logging.NewLogger(
				"prediction-cli",
				logging.NewWrappedCore(level, os.Stderr, logging.Colors.ConsoleEncoder()),
			)
			return nil
		},
	}
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		logging.Info.String(),
		"log level",
	)
	rootCmd.AddCommand(
		deriveCmd,
		feedCmd,
		addressCmd,
		genesisCmd,
		marketCmd,
		actionCmd,
	)
}

func Execute() error {
	return rootCmd.Execute()
}
