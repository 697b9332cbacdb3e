package market

import (
	"fmt"
	"slices"

	"github.com/chokosabe/pricepredictionvm/storage"
)

// transitions lists every legal state change. Terminal states have no entry.
var transitions = map[storage.MarketState][]storage.MarketState{
	storage.StateUninitialized:     {storage.StateInitializedMarket},
	storage.StateInitializedMarket: {storage.StatePoolsInitialized, storage.StateCancelled},
	storage.StatePoolsInitialized:  {storage.StateResolved, storage.StateCancelled},
}

func checkTransition(from, to storage.MarketState) error {
	if !slices.Contains(transitions[from], to) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidMarketState, from, to)
	}
	return nil
}

func requireState(m *storage.Market, want storage.MarketState) error {
	if m.State != want {
		return fmt.Errorf("%w: market is %s, expected %s", ErrInvalidMarketState, m.State, want)
	}
	return nil
}
