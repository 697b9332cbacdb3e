package market

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/codec"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/storage"
)

// PlaceBet moves amount of the market's mint from bettor into side's pool
// and adds it to the bettor's bet on that side.
func (l *Ledger) PlaceBet(
	ctx context.Context,
	bettor codec.Address,
	market codec.Address,
	side consts.Side,
	mint ids.ID,
	amount uint64,
) (*storage.Bet, error) {
	if amount == 0 {
		return nil, ErrAmountZero
	}
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, side)
	}

	var out *storage.Bet
	err := l.atomic(ctx, func(t *tx) error {
		m, err := l.load(ctx, t, market)
		if err != nil {
			return err
		}
		if err := requireState(m, storage.StatePoolsInitialized); err != nil {
			return err
		}
		if l.now >= m.Expiry() {
			return fmt.Errorf("%w: expired at %d, now %d", ErrMarketExpired, m.Expiry(), l.now)
		}
		if mint != m.Mint {
			return fmt.Errorf("%w: got %s, market uses %s", ErrMintMismatch, mint, m.Mint)
		}

		pool, err := l.pool(side, market, m)
		if err != nil {
			return err
		}
		if err := t.custody.Transfer(ctx, bettor, pool, mint, amount); err != nil {
			return err
		}

		bet, err := storage.GetBet(ctx, t.mu, market, bettor, side)
		if err != nil {
			return err
		}
		if bet == nil {
			bet = &storage.Bet{Market: market, Owner: bettor, Side: side}
		}
		total, err := safemath.Add(bet.Amount, amount)
		if err != nil {
			return fmt.Errorf("%w: bet of %s on %s", ErrOverflow, bettor, side)
		}
		bet.Amount = total
		out = bet
		return storage.SetBet(ctx, t.mu, bet)
	})
	return out, err
}

// Redemption is the outcome of a Redeem call.
type Redemption struct {
	Payout uint64
	// Settled lists the bets this call settled.
	Settled []consts.Side
}

// Redeem pays bettor's unsettled winning bet its pro-rata share of both pools
// and settles any unsettled losing bet with nothing.
func (l *Ledger) Redeem(ctx context.Context, bettor codec.Address, market codec.Address, mint ids.ID) (*Redemption, error) {
	out := &Redemption{}
	err := l.atomic(ctx, func(t *tx) error {
		m, err := l.load(ctx, t, market)
		if err != nil {
			return err
		}
		if err := requireState(m, storage.StateResolved); err != nil {
			return err
		}
		if m.Closed {
			return fmt.Errorf("%w: %s", ErrMarketClosed, market)
		}
		if mint != m.Mint {
			return fmt.Errorf("%w: got %s, market uses %s", ErrMintMismatch, mint, m.Mint)
		}

		win, err := storage.GetBet(ctx, t.mu, market, bettor, m.WinningSide)
		if err != nil {
			return err
		}
		if win != nil && !win.Settled {
			payout, err := Payout(win.Amount, m.HigherTotal, m.LowerTotal, m.PoolTotal(m.WinningSide))
			if err != nil {
				return err
			}
			if err := l.payFromPools(ctx, t, market, m, bettor, payout); err != nil {
				return err
			}
			win.Settled = true
			if err := storage.SetBet(ctx, t.mu, win); err != nil {
				return err
			}
			out.Payout = payout
			out.Settled = append(out.Settled, win.Side)
		}

		lose, err := storage.GetBet(ctx, t.mu, market, bettor, m.WinningSide.Opposite())
		if err != nil {
			return err
		}
		if lose != nil && !lose.Settled {
			lose.Settled = true
			if err := storage.SetBet(ctx, t.mu, lose); err != nil {
				return err
			}
			out.Settled = append(out.Settled, lose.Side)
		}

		if len(out.Settled) == 0 {
			return fmt.Errorf("%w: %s in %s", ErrNoWinningBet, bettor, market)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RefundOnCancel returns bettor's unsettled stakes from a cancelled market.
// Calling it again refunds nothing.
func (l *Ledger) RefundOnCancel(ctx context.Context, bettor codec.Address, market codec.Address, mint ids.ID) (uint64, error) {
	var refunded uint64
	err := l.atomic(ctx, func(t *tx) error {
		m, err := l.load(ctx, t, market)
		if err != nil {
			return err
		}
		if err := requireState(m, storage.StateCancelled); err != nil {
			return err
		}
		if m.Closed {
			return fmt.Errorf("%w: %s", ErrMarketClosed, market)
		}
		if mint != m.Mint {
			return fmt.Errorf("%w: got %s, market uses %s", ErrMintMismatch, mint, m.Mint)
		}

		for _, side := range []consts.Side{consts.Higher, consts.Lower} {
			bet, err := storage.GetBet(ctx, t.mu, market, bettor, side)
			if err != nil {
				return err
			}
			if bet == nil || bet.Settled {
				continue
			}
			pool, err := l.pool(side, market, m)
			if err != nil {
				return err
			}
			if err := t.custody.Transfer(ctx, pool, bettor, m.Mint, bet.Amount); err != nil {
				return err
			}
			bet.Settled = true
			if err := storage.SetBet(ctx, t.mu, bet); err != nil {
				return err
			}
			refunded += bet.Amount
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return refunded, nil
}

// Payout is floor(amount * (higher + lower) / winning), computed without
// losing precision in the product.
func Payout(amount, higher, lower, winning uint64) (uint64, error) {
	if winning == 0 {
		return 0, fmt.Errorf("%w: empty winning pool", ErrNoWinningBet)
	}
	total, err := safemath.Add(higher, lower)
	if err != nil {
		return 0, fmt.Errorf("%w: pool total", ErrOverflow)
	}
	hi, lo := bits.Mul64(amount, total)
	if hi >= winning {
		return 0, fmt.Errorf("%w: payout of %d", ErrOverflow, amount)
	}
	q, _ := bits.Div64(hi, lo, winning)
	return q, nil
}

// payFromPools draws amount from the winning pool first and the losing pool
// for the rest.
func (l *Ledger) payFromPools(ctx context.Context, t *tx, market codec.Address, m *storage.Market, to codec.Address, amount uint64) error {
	remaining := amount
	for _, side := range []consts.Side{m.WinningSide, m.WinningSide.Opposite()} {
		if remaining == 0 {
			return nil
		}
		pool, err := l.pool(side, market, m)
		if err != nil {
			return err
		}
		bal, err := t.custody.Balance(ctx, pool, m.Mint)
		if err != nil {
			return err
		}
		take := min(bal, remaining)
		if take == 0 {
			continue
		}
		if err := t.custody.Transfer(ctx, pool, to, m.Mint, take); err != nil {
			return err
		}
		remaining -= take
	}
	if remaining != 0 {
		return fmt.Errorf("%w: pools short by %d", ErrInsufficientFunds, remaining)
	}
	return nil
}
