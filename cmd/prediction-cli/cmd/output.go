// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/fatih/color"

	"github.com/chokosabe/pricepredictionvm/genesis"
)

var (
	label = color.New(color.FgYellow).SprintFunc()
	value = color.New(color.FgGreen).SprintFunc()
)

func field(name string, v any) {
	fmt.Fprintf(color.Output, "%s %s\n", label(name+":"), value(v))
}

func addressField(name string, addr codec.Address) error {
	s, err := genesis.FormatAddress(addr)
	if err != nil {
		return err
	}
	field(name, s)
	return nil
}

func hexField(name string, b []byte) error {
	s, err := formatting.Encode(formatting.HexNC, b)
	if err != nil {
		return err
	}
	field(name, s)
	return nil
}

// parseAddress accepts either a bech32 address or the 0x hex form.
func parseAddress(s string) (codec.Address, error) {
	if addr, err := genesis.ParseAddress(s); err == nil {
		return addr, nil
	}
	return codec.StringToAddress(s)
}
