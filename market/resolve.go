package market

import (
	"context"
	"fmt"

	"github.com/ava-labs/hypersdk/codec"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/oracle"
	"github.com/chokosabe/pricepredictionvm/storage"
)

// Resolve settles an expired market against sample. Higher wins when the
// price is at or above the target.
func (l *Ledger) Resolve(ctx context.Context, market codec.Address, sample *oracle.Sample) (*storage.Market, error) {
	var out *storage.Market
	err := l.atomic(ctx, func(t *tx) error {
		m, err := l.load(ctx, t, market)
		if err != nil {
			return err
		}
		if err := checkTransition(m.State, storage.StateResolved); err != nil {
			return err
		}
		if l.now < m.Expiry() {
			return fmt.Errorf("%w: expires at %d, now %d", ErrMarketNotExpired, m.Expiry(), l.now)
		}
		if err := l.checkSample(m, sample); err != nil {
			return err
		}

		higher, err := l.poolBalance(ctx, t, consts.Higher, market, m)
		if err != nil {
			return err
		}
		lower, err := l.poolBalance(ctx, t, consts.Lower, market, m)
		if err != nil {
			return err
		}

		m.WinningSide = consts.Lower
		if sample.Price >= m.TargetPrice {
			m.WinningSide = consts.Higher
		}
		m.ResolvedPrice = sample.Price
		m.ResolvedAt = l.now
		m.HigherTotal = higher
		m.LowerTotal = lower
		m.State = storage.StateResolved
		out = m
		return storage.SetMarket(ctx, t.mu, market, m)
	})
	return out, err
}

// ResolveFromOracle resolves market with the latest sample r holds for its feed.
func (l *Ledger) ResolveFromOracle(ctx context.Context, market codec.Address, r oracle.Reader) (*storage.Market, error) {
	m, err := storage.GetMarket(ctx, l.mu, market)
	if err != nil {
		return nil, err
	}
	sample, err := r.ReadLatestSample(ctx, m.FeedID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStaleOrMismatchedFeed, err)
	}
	return l.Resolve(ctx, market, sample)
}

// checkSample accepts only a sample for the market's feed taken between
// expiry and now, and no older than the max sample age.
func (l *Ledger) checkSample(m *storage.Market, s *oracle.Sample) error {
	maxAgeMs, err := safemath.Mul(l.params.MaxSampleAge, 1000)
	if err != nil {
		return fmt.Errorf("%w: max sample age", ErrOverflow)
	}
	switch {
	case s == nil:
		return fmt.Errorf("%w: no sample", ErrStaleOrMismatchedFeed)
	case s.FeedID != m.FeedID:
		return fmt.Errorf("%w: sample for %s, market tracks %s", ErrStaleOrMismatchedFeed, s.FeedID, m.FeedID)
	case s.Timestamp < m.Expiry():
		return fmt.Errorf("%w: sample at %d predates expiry %d", ErrStaleOrMismatchedFeed, s.Timestamp, m.Expiry())
	case s.Timestamp > l.now:
		return fmt.Errorf("%w: sample at %d is after now %d", ErrStaleOrMismatchedFeed, s.Timestamp, l.now)
	case uint64(l.now-s.Timestamp) > maxAgeMs:
		return fmt.Errorf("%w: sample is %d ms old", ErrStaleOrMismatchedFeed, l.now-s.Timestamp)
	}
	return nil
}
