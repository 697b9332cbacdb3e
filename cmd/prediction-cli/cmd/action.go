// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/spf13/cobra"

	"github.com/chokosabe/pricepredictionvm/actions"
	"github.com/chokosabe/pricepredictionvm/vm"
)

var actionTypes = map[string]func() chain.Action{
	"initialize-market": func() chain.Action { return &actions.InitializeMarket{} },
	"initialize-pools":  func() chain.Action { return &actions.InitializePools{} },
	"place-bet":         func() chain.Action { return &actions.PlaceBet{} },
	"resolve":           func() chain.Action { return &actions.Resolve{} },
	"redeem":            func() chain.Action { return &actions.Redeem{} },
	"cancel-market":     func() chain.Action { return &actions.CancelMarket{} },
	"refund":            func() chain.Action { return &actions.Refund{} },
	"finalize-market":   func() chain.Action { return &actions.FinalizeMarket{} },
	"publish-price":     func() chain.Action { return &actions.PublishPrice{} },
}

var actionCmd = &cobra.Command{
	Use: "action",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var actionEncodeCmd = &cobra.Command{
	Use:   "encode [type] [json]",
	Short: "Encode an action from its JSON form",
	Long:  "Types: " + strings.Join(slices.Sorted(maps.Keys(actionTypes)), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		newAction, ok := actionTypes[args[0]]
		if !ok {
			return fmt.Errorf("%w: unknown action type %q", ErrInvalidArgs, args[0])
		}
		action := newAction()
		if err := json.Unmarshal([]byte(args[1]), action); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
		return hexField("action", action.Bytes())
	},
}

var actionDecodeCmd = &cobra.Command{
	Use:   "decode [hex]",
	Short: "Decode an encoded action",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		b, err := formatting.Decode(formatting.HexNC, args[0])
		if err != nil {
			return err
		}
		action, err := vm.ActionParser.Unmarshal(b)
		if err != nil {
			return err
		}
		out, err := json.Marshal(action)
		if err != nil {
			return err
		}
		field(fmt.Sprintf("%T", action), string(out))
		return nil
	},
}

func init() {
	actionCmd.AddCommand(actionEncodeCmd, actionDecodeCmd)
}
