// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chokosabe/pricepredictionvm/consts"
)

const idFlag = "id"

func init() {
	cobra.EnablePrefixMatching = true
}

// NewCommand implements "pricepredictionvm version" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Prints the VM name, version and VM ID",
		Args:  cobra.NoArgs,
		RunE:  versionFunc,
	}
	cmd.Flags().Bool(idFlag, false, "print only the VM ID, which names the plugin binary")
	return cmd
}

func versionFunc(cmd *cobra.Command, _ []string) error {
	idOnly, err := cmd.Flags().GetBool(idFlag)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if idOnly {
		_, err = fmt.Fprintln(out, consts.ID)
		return err
	}
	_, err = fmt.Fprintf(out, "%s@%s (%s)\n", consts.Name, consts.Version, consts.ID)
	return err
}
