// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"

	"github.com/ava-labs/hypersdk/auth"
	"github.com/ava-labs/hypersdk/chain"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state/metadata"
	"github.com/ava-labs/hypersdk/vm"
	"github.com/ava-labs/hypersdk/vm/defaultvm"

	"github.com/chokosabe/pricepredictionvm/actions"
	"github.com/chokosabe/pricepredictionvm/controller"
	"github.com/chokosabe/pricepredictionvm/genesis"
)

var (
	ActionParser *codec.TypeParser[chain.Action]
	AuthParser   *codec.TypeParser[chain.Auth]
	OutputParser *codec.TypeParser[codec.Typed]

	AuthProvider *auth.AuthProvider

	Parser *chain.TxTypeParser
)

// Setup types
func init() {
	ActionParser = codec.NewTypeParser[chain.Action]()
	AuthParser = codec.NewTypeParser[chain.Auth]()
	OutputParser = codec.NewTypeParser[codec.Typed]()
	AuthProvider = auth.NewAuthProvider()

	if err := auth.WithDefaultPrivateKeyFactories(AuthProvider); err != nil {
		panic(err)
	}

	if err := errors.Join(
		// Market lifecycle
		ActionParser.Register(&actions.InitializeMarket{}, actions.UnmarshalInitializeMarket),
		ActionParser.Register(&actions.InitializePools{}, actions.UnmarshalInitializePools),
		ActionParser.Register(&actions.PlaceBet{}, actions.UnmarshalPlaceBet),
		ActionParser.Register(&actions.Resolve{}, actions.UnmarshalResolve),
		ActionParser.Register(&actions.Redeem{}, actions.UnmarshalRedeem),
		ActionParser.Register(&actions.CancelMarket{}, actions.UnmarshalCancelMarket),
		ActionParser.Register(&actions.Refund{}, actions.UnmarshalRefund),
		ActionParser.Register(&actions.FinalizeMarket{}, actions.UnmarshalFinalizeMarket),
		ActionParser.Register(&actions.PublishPrice{}, actions.UnmarshalPublishPrice),

		AuthParser.Register(&auth.ED25519{}, auth.UnmarshalED25519),
		AuthParser.Register(&auth.SECP256R1{}, auth.UnmarshalSECP256R1),
		AuthParser.Register(&auth.BLS{}, auth.UnmarshalBLS),

		OutputParser.Register(&actions.InitializeMarketResult{}, actions.UnmarshalInitializeMarketResult),
		OutputParser.Register(&actions.InitializePoolsResult{}, actions.UnmarshalInitializePoolsResult),
		OutputParser.Register(&actions.PlaceBetResult{}, actions.UnmarshalPlaceBetResult),
		OutputParser.Register(&actions.ResolveResult{}, actions.UnmarshalResolveResult),
		OutputParser.Register(&actions.RedeemResult{}, actions.UnmarshalRedeemResult),
		OutputParser.Register(&actions.CancelMarketResult{}, actions.UnmarshalCancelMarketResult),
		OutputParser.Register(&actions.RefundResult{}, actions.UnmarshalRefundResult),
		OutputParser.Register(&actions.FinalizeMarketResult{}, actions.UnmarshalFinalizeMarketResult),
		OutputParser.Register(&actions.PublishPriceResult{}, actions.UnmarshalPublishPriceResult),
	); err != nil {
		panic(err)
	}

	Parser = chain.NewTxTypeParser(ActionParser, AuthParser)
}

// New returns a VM with the specified options
func New(options ...vm.Option) (*vm.VM, error) {
	factory := NewFactory()
	return factory.New(options...)
}

// NewFactory returns a factory for VMs with the default options plus any
// extra ones, such as vm.WithManual() in tests.
func NewFactory(extra ...vm.Option) *vm.Factory {
	options := append(defaultvm.NewDefaultOptions(), extra...)
	return vm.NewFactory(
		&genesis.Factory{},
		controller.New(),
		metadata.NewDefaultManager(),
		ActionParser,
		AuthParser,
		OutputParser,
		auth.DefaultEngines(),
		options...,
	)
}
