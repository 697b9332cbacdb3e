// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chokosabe/pricepredictionvm/vm"
)

func TestActionTypesRegistered(t *testing.T) {
	for name, newAction := range actionTypes {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			action := newAction()
			parsed, err := vm.ActionParser.Unmarshal(action.Bytes())
			require.NoError(err)
			require.Equal(action, parsed)
		})
	}
}

func TestParseAddress(t *testing.T) {
	require := require.New(t)
	_, err := parseAddress("nope")
	require.Error(err)
}
