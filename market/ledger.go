// Package market implements the market state machine and the pool
// accounting that settles bets against an oracle price.
//
// Every Ledger operation stages its writes in an overlay over the backing
// state and commits only if the whole operation succeeds.
package market

import (
	"context"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/custody"
	"github.com/chokosabe/pricepredictionvm/derive"
	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/storage"
)

// Ledger runs market operations against mu at a single block time.
type Ledger struct {
	mu        state.Mutable
	params    *storage.Params
	now       int64
	namespace []byte
}

// NewLedger returns a ledger over mu. now is the block timestamp in unix ms.
func NewLedger(mu state.Mutable, params *storage.Params, now int64) *Ledger {
	return &Ledger{
		mu:        mu,
		params:    params,
		now:       now,
		namespace: consts.Namespace,
	}
}

// tx is the staged view of one operation.
type tx struct {
	mu      state.Mutable
	custody *custody.Ledger
}

func (l *Ledger) atomic(ctx context.Context, fn func(*tx) error) error {
	o := newOverlay(l.mu)
	if err := fn(&tx{
		mu:      o,
		custody: custody.NewLedger(o, l.params.CustodyDeposit),
	}); err != nil {
		return err
	}
	return o.commit(ctx)
}

// Created describes a newly initialized market.
type Created struct {
	Address codec.Address
	Market  *storage.Market
}

// InitializeMarket creates the market for (creator, feedID, targetPrice,
// duration) at its derived address.
func (l *Ledger) InitializeMarket(
	ctx context.Context,
	creator codec.Address,
	feedID string,
	targetPrice uint64,
	duration uint64,
) (*Created, error) {
	id, err := feed.Parse(feedID)
	if err != nil {
		return nil, err
	}
	if duration < l.params.MinMarketDuration {
		return nil, fmt.Errorf("%w: %d < %d seconds", ErrShortMarketDuration, duration, l.params.MinMarketDuration)
	}
	durationMs, err := safemath.Mul(duration, 1000)
	if err != nil || durationMs > uint64(math.MaxInt64-l.now) {
		return nil, fmt.Errorf("%w: expiry of %d seconds from %d", ErrOverflow, duration, l.now)
	}

	addr, bump, err := derive.Market(creator, id, targetPrice, duration, l.namespace)
	if err != nil {
		return nil, err
	}

	var created *Created
	err = l.atomic(ctx, func(t *tx) error {
		exists, err := storage.MarketExists(ctx, t.mu, addr)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrMarketAlreadyExists, addr)
		}
		if err := checkTransition(storage.StateUninitialized, storage.StateInitializedMarket); err != nil {
			return err
		}
		m := &storage.Market{
			Creator:        creator,
			FeedID:         id,
			TargetPrice:    targetPrice,
			MarketDuration: duration,
			StartTime:      l.now,
			State:          storage.StateInitializedMarket,
			Bump:           bump,
		}
		created = &Created{Address: addr, Market: m}
		return storage.SetMarket(ctx, t.mu, addr, m)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// InitializePools opens the Higher and Lower custody accounts of market for
// mint. Only the creator may do this, and the creator pays their deposits.
func (l *Ledger) InitializePools(ctx context.Context, actor codec.Address, market codec.Address, mint ids.ID) (*storage.Market, error) {
	var out *storage.Market
	err := l.atomic(ctx, func(t *tx) error {
		m, err := l.loadOwned(ctx, t, actor, market)
		if err != nil {
			return err
		}
		if err := checkTransition(m.State, storage.StatePoolsInitialized); err != nil {
			return err
		}

		for _, side := range []consts.Side{consts.Higher, consts.Lower} {
			pool, bump, err := derive.Pool(side, market, l.namespace)
			if err != nil {
				return err
			}
			if err := t.custody.CreateAccount(ctx, pool, market, mint, m.Creator); err != nil {
				return fmt.Errorf("failed to create %s pool: %w", side, err)
			}
			if side == consts.Higher {
				m.HigherPoolBump = bump
			} else {
				m.LowerPoolBump = bump
			}
		}
		m.Mint = mint
		m.State = storage.StatePoolsInitialized
		out = m
		return storage.SetMarket(ctx, t.mu, market, m)
	})
	return out, err
}

// CancelMarket moves a live market to Cancelled before it expires. Stakes
// stay in the pools until each bettor calls RefundOnCancel. Pools that are
// already empty are closed at once and their deposits go back to the creator.
func (l *Ledger) CancelMarket(ctx context.Context, actor codec.Address, market codec.Address) (*storage.Market, error) {
	var out *storage.Market
	err := l.atomic(ctx, func(t *tx) error {
		m, err := l.loadOwned(ctx, t, actor, market)
		if err != nil {
			return err
		}
		if err := checkTransition(m.State, storage.StateCancelled); err != nil {
			return err
		}
		if l.now >= m.Expiry() {
			return fmt.Errorf("%w: expired at %d, now %d", ErrMarketNotCancellable, m.Expiry(), l.now)
		}

		hadPools := m.State == storage.StatePoolsInitialized
		m.State = storage.StateCancelled
		if !hadPools {
			m.Closed = true
		} else {
			empty, err := l.poolsEmpty(ctx, t, market, m)
			if err != nil {
				return err
			}
			if empty {
				if err := l.closePools(ctx, t, market, m); err != nil {
					return err
				}
			}
		}
		out = m
		return storage.SetMarket(ctx, t.mu, market, m)
	})
	return out, err
}

// FinalizeMarket lets the creator sweep whatever the pools still hold once
// the lock period after expiry has passed, and closes the pools. It returns
// the swept amount.
func (l *Ledger) FinalizeMarket(ctx context.Context, actor codec.Address, market codec.Address) (uint64, error) {
	var swept uint64
	err := l.atomic(ctx, func(t *tx) error {
		m, err := l.loadOwned(ctx, t, actor, market)
		if err != nil {
			return err
		}
		if !m.State.Terminal() {
			return fmt.Errorf("%w: market is %s", ErrInvalidMarketState, m.State)
		}
		if m.Closed {
			return fmt.Errorf("%w: %s", ErrMarketClosed, market)
		}
		lockMs, err := safemath.Mul(l.params.LockPeriod, 1000)
		if err != nil {
			return fmt.Errorf("%w: lock period", ErrOverflow)
		}
		if l.now <= m.Expiry() || uint64(l.now-m.Expiry()) <= lockMs {
			return fmt.Errorf("%w: unlocks after %d ms past expiry", ErrLockPeriodNotOver, lockMs)
		}

		for _, side := range []consts.Side{consts.Higher, consts.Lower} {
			pool, err := l.pool(side, market, m)
			if err != nil {
				return err
			}
			bal, err := t.custody.Balance(ctx, pool, m.Mint)
			if err != nil {
				return err
			}
			if bal == 0 {
				continue
			}
			if err := t.custody.Transfer(ctx, pool, m.Creator, m.Mint, bal); err != nil {
				return err
			}
			swept += bal
		}
		if err := l.closePools(ctx, t, market, m); err != nil {
			return err
		}
		return storage.SetMarket(ctx, t.mu, market, m)
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

func (l *Ledger) load(ctx context.Context, t *tx, market codec.Address) (*storage.Market, error) {
	m, err := storage.GetMarket(ctx, t.mu, market)
	if err != nil {
		return nil, err
	}
	seeds := derive.MarketSeeds(m.Creator, m.FeedID, m.TargetPrice, m.MarketDuration)
	if err := derive.Verify(market, seeds, m.Bump, l.namespace); err != nil {
		return nil, err
	}
	return m, nil
}

func (l *Ledger) loadOwned(ctx context.Context, t *tx, actor codec.Address, market codec.Address) (*storage.Market, error) {
	m, err := l.load(ctx, t, market)
	if err != nil {
		return nil, err
	}
	if actor != m.Creator {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, actor)
	}
	return m, nil
}

// pool re-derives side's pool from its stored bump.
func (l *Ledger) pool(side consts.Side, market codec.Address, m *storage.Market) (codec.Address, error) {
	seeds, err := derive.PoolSeeds(side, market)
	if err != nil {
		return codec.EmptyAddress, err
	}
	addr, ok, err := derive.Create(seeds, m.PoolBump(side), l.namespace)
	if err != nil {
		return codec.EmptyAddress, err
	}
	if !ok {
		return codec.EmptyAddress, fmt.Errorf("%w: %s pool", derive.ErrBumpMismatch, side)
	}
	return addr, nil
}

func (l *Ledger) poolBalance(ctx context.Context, t *tx, side consts.Side, market codec.Address, m *storage.Market) (uint64, error) {
	pool, err := l.pool(side, market, m)
	if err != nil {
		return 0, err
	}
	return t.custody.Balance(ctx, pool, m.Mint)
}

func (l *Ledger) poolsEmpty(ctx context.Context, t *tx, market codec.Address, m *storage.Market) (bool, error) {
	for _, side := range []consts.Side{consts.Higher, consts.Lower} {
		bal, err := l.poolBalance(ctx, t, side, market, m)
		if err != nil {
			return false, err
		}
		if bal != 0 {
			return false, nil
		}
	}
	return true, nil
}

func (l *Ledger) closePools(ctx context.Context, t *tx, market codec.Address, m *storage.Market) error {
	for _, side := range []consts.Side{consts.Higher, consts.Lower} {
		pool, err := l.pool(side, market, m)
		if err != nil {
			return err
		}
		if err := t.custody.CloseAccount(ctx, pool, m.Creator); err != nil {
			return fmt.Errorf("failed to close %s pool: %w", side, err)
		}
	}
	m.Closed = true
	return nil
}
