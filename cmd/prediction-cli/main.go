// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "prediction-cli" implements pricepredictionvm client operation interface.
package main

import (
	"os"

	"github.com/ava-labs/hypersdk/utils"

	"github.com/chokosabe/pricepredictionvm/cmd/prediction-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		utils.Outf("{{red}}prediction-cli exited with error:{{/}} %+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
