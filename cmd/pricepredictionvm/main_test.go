// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chokosabe/pricepredictionvm/consts"
)

func TestVersionCommand(t *testing.T) {
	require := require.New(t)
	require.Equal(consts.Name, rootCmd.Name())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"version"})
	require.NoError(rootCmd.Execute())
	require.Equal(consts.Name+"@"+consts.Version.String()+" ("+consts.ID.String()+")\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"version", "--id"})
	require.NoError(rootCmd.Execute())
	require.Equal(consts.ID.String()+"\n", out.String())
}
