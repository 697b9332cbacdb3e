package market

import (
	"context"
	"math"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/chain/chaintest"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"
	"github.com/stretchr/testify/require"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/custody"
	"github.com/chokosabe/pricepredictionvm/derive"
	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/oracle"
	"github.com/chokosabe/pricepredictionvm/storage"
)

const (
	testFeed     = "0xef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d"
	otherFeed    = "0x0000000000000000000000000000000000000000000000000000000000000001"
	testTarget   = uint64(140)
	testDuration = uint64(1300)
	start        = int64(1_700_000_000_000)
	expiry       = start + int64(testDuration)*1000
)

// recordingStore counts writes so tests can assert nothing was committed.
type recordingStore struct {
	state.Mutable
	writes int
}

func (r *recordingStore) Insert(ctx context.Context, key, value []byte) error {
	r.writes++
	return r.Mutable.Insert(ctx, key, value)
}

func (r *recordingStore) Remove(ctx context.Context, key []byte) error {
	r.writes++
	return r.Mutable.Remove(ctx, key)
}

type fixture struct {
	t       *testing.T
	mu      state.Mutable
	params  *storage.Params
	creator codec.Address
	mint    ids.ID
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t:       t,
		mu:      chaintest.NewInMemoryStore(),
		params:  storage.DefaultParams(),
		creator: codec.CreateAddress(0, ids.GenerateTestID()),
		mint:    ids.GenerateTestID(),
	}
}

func (f *fixture) at(now int64) *Ledger {
	return NewLedger(f.mu, f.params, now)
}

func (f *fixture) fund(addr codec.Address, amount uint64) {
	require.NoError(f.t, custody.NewLedger(f.mu, 0).Credit(context.Background(), addr, f.mint, amount))
}

func (f *fixture) balance(addr codec.Address) uint64 {
	bal, err := custody.Balance(context.Background(), f.mu, addr, f.mint)
	require.NoError(f.t, err)
	return bal
}

func (f *fixture) bettor(amount uint64) codec.Address {
	addr := codec.CreateAddress(0, ids.GenerateTestID())
	f.fund(addr, amount)
	return addr
}

func (f *fixture) poolAddr(side consts.Side, market codec.Address) codec.Address {
	addr, _, err := derive.Pool(side, market, consts.Namespace)
	require.NoError(f.t, err)
	return addr
}

// open creates a market with pools at start.
func (f *fixture) open() codec.Address {
	ctx := context.Background()
	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.NoError(f.t, err)
	_, err = f.at(start).InitializePools(ctx, f.creator, created.Address, f.mint)
	require.NoError(f.t, err)
	return created.Address
}

func (f *fixture) sample(price uint64, ts int64) *oracle.Sample {
	id, err := feed.Parse(testFeed)
	require.NoError(f.t, err)
	return &oracle.Sample{FeedID: id, Price: price, Timestamp: ts}
}

func (f *fixture) market(addr codec.Address) *storage.Market {
	m, err := storage.GetMarket(context.Background(), f.mu, addr)
	require.NoError(f.t, err)
	return m
}

func TestInitializeMarket(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.NoError(err)

	addr, bump, err := derive.Market(f.creator, created.Market.FeedID, testTarget, testDuration, consts.Namespace)
	require.NoError(err)
	require.Equal(addr, created.Address)

	m := f.market(addr)
	require.Equal(f.creator, m.Creator)
	require.Equal(testFeed, m.FeedID.String())
	require.Equal(testTarget, m.TargetPrice)
	require.Equal(testDuration, m.MarketDuration)
	require.Equal(start, m.StartTime)
	require.Equal(bump, m.Bump)
	require.Equal(storage.StateInitializedMarket, m.State)
	require.Equal(expiry, m.Expiry())
}

func TestInitializeMarket_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		feedID   string
		duration uint64
		now      int64
		wantErr  error
	}{
		{"feed too short", testFeed[:65], testDuration, start, ErrIncorrectFeedIDLength},
		{"feed too long", testFeed + "0", testDuration, start, ErrIncorrectFeedIDLength},
		{"empty feed", "", testDuration, start, ErrIncorrectFeedIDLength},
		{"duration below minimum", testFeed, consts.DefaultMinMarketDuration - 1, start, ErrShortMarketDuration},
		{"duration overflows ms", testFeed, math.MaxUint64 / 10, start, ErrOverflow},
		{"expiry overflows", testFeed, uint64(math.MaxInt64/1000) - 1, start, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			store := &recordingStore{Mutable: chaintest.NewInMemoryStore()}
			l := NewLedger(store, storage.DefaultParams(), tt.now)

			_, err := l.InitializeMarket(context.Background(), codec.CreateAddress(0, ids.GenerateTestID()), tt.feedID, testTarget, tt.duration)
			require.ErrorIs(err, tt.wantErr)
			require.Zero(store.writes)
		})
	}
}

func TestInitializeMarket_AlreadyExists(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.NoError(err)

	_, err = f.at(start+5_000).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.ErrorIs(err, ErrMarketAlreadyExists)
	require.Equal(created.Market, f.market(created.Address))

	// Any change to the tuple is a different market.
	other, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget+1, testDuration)
	require.NoError(err)
	require.NotEqual(created.Address, other.Address)
}

func TestInitializePools(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.NoError(err)
	addr := created.Address

	stranger := codec.CreateAddress(0, ids.GenerateTestID())
	_, err = f.at(start).InitializePools(ctx, stranger, addr, f.mint)
	require.ErrorIs(err, ErrUnauthorized)

	m, err := f.at(start).InitializePools(ctx, f.creator, addr, f.mint)
	require.NoError(err)
	require.Equal(storage.StatePoolsInitialized, m.State)
	require.Equal(f.mint, m.Mint)

	for _, side := range []consts.Side{consts.Higher, consts.Lower} {
		pool, bump, err := derive.Pool(side, addr, consts.Namespace)
		require.NoError(err)
		require.Equal(bump, m.PoolBump(side))

		acct, err := custody.GetAccount(ctx, f.mu, pool)
		require.NoError(err)
		require.Equal(addr, acct.Owner)
		require.Equal(f.mint, acct.Mint)
		require.Zero(f.balance(pool))
	}
	require.Equal(m, f.market(addr))

	_, err = f.at(start).InitializePools(ctx, f.creator, addr, ids.GenerateTestID())
	require.ErrorIs(err, ErrInvalidMarketState)
	require.Equal(f.mint, f.market(addr).Mint)

	_, err = f.at(start).InitializePools(ctx, f.creator, codec.CreateAddress(consts.DerivedAddressTypeID, ids.GenerateTestID()), f.mint)
	require.ErrorIs(err, ErrMarketNotFound)
}

func TestInitializePools_AllOrNothing(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.params.CustodyDeposit = 10

	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.NoError(err)

	// Enough for the first pool only.
	require.NoError(storage.SetBalance(ctx, f.mu, f.creator, 15))
	_, err = f.at(start).InitializePools(ctx, f.creator, created.Address, f.mint)
	require.ErrorIs(err, ErrInsufficientFunds)

	require.Equal(storage.StateInitializedMarket, f.market(created.Address).State)
	_, err = custody.GetAccount(ctx, f.mu, f.poolAddr(consts.Higher, created.Address))
	require.ErrorIs(err, custody.ErrAccountNotFound)
	bal, err := storage.GetBalance(ctx, f.mu, f.creator)
	require.NoError(err)
	require.Equal(uint64(15), bal)

	require.NoError(storage.SetBalance(ctx, f.mu, f.creator, 20))
	_, err = f.at(start).InitializePools(ctx, f.creator, created.Address, f.mint)
	require.NoError(err)
	bal, err = storage.GetBalance(ctx, f.mu, f.creator)
	require.NoError(err)
	require.Zero(bal)
}

func TestPlaceBet(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	addr := f.open()

	alice := f.bettor(100)
	bob := f.bettor(100)

	bets := []struct {
		who    codec.Address
		side   consts.Side
		amount uint64
	}{
		{alice, consts.Higher, 10},
		{bob, consts.Lower, 25},
		{alice, consts.Higher, 5},
		{alice, consts.Lower, 1},
	}
	var staked uint64
	for i, b := range bets {
		_, err := f.at(start+int64(i)).PlaceBet(ctx, b.who, addr, b.side, f.mint, b.amount)
		require.NoError(err)
		staked += b.amount
	}

	higher := f.balance(f.poolAddr(consts.Higher, addr))
	lower := f.balance(f.poolAddr(consts.Lower, addr))
	require.Equal(uint64(15), higher)
	require.Equal(uint64(26), lower)
	require.Equal(staked, higher+lower)
	require.Equal(uint64(84), f.balance(alice))

	bet, err := storage.GetBet(ctx, f.mu, addr, alice, consts.Higher)
	require.NoError(err)
	require.Equal(uint64(15), bet.Amount)
	require.False(bet.Settled)
}

func TestPlaceBet_Rejected(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		now     int64
		side    consts.Side
		mint    func(*fixture) ids.ID
		amount  uint64
		wantErr error
	}{
		{"at expiry", expiry, consts.Higher, nil, 1, ErrMarketExpired},
		{"after expiry", expiry + 1, consts.Lower, nil, 1, ErrMarketExpired},
		{"zero amount", start, consts.Higher, nil, 0, ErrAmountZero},
		{"unknown side", start, consts.Side(7), nil, 1, ErrInvalidSide},
		{"other mint", start, consts.Higher, func(*fixture) ids.ID { return ids.GenerateTestID() }, 1, ErrMintMismatch},
		{"more than balance", start, consts.Higher, nil, 51, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t)
			addr := f.open()
			who := f.bettor(50)
			mint := f.mint
			if tt.mint != nil {
				mint = tt.mint(f)
			}

			_, err := f.at(tt.now).PlaceBet(ctx, who, addr, tt.side, mint, tt.amount)
			require.ErrorIs(err, tt.wantErr)

			require.Equal(uint64(50), f.balance(who))
			for _, side := range []consts.Side{consts.Higher, consts.Lower} {
				bet, err := storage.GetBet(ctx, f.mu, addr, who, side)
				require.NoError(err)
				require.Nil(bet)
			}
		})
	}
}

func TestPlaceBet_BeforePools(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, f.bettor(5), created.Address, consts.Higher, f.mint, 1)
	require.ErrorIs(err, ErrInvalidMarketState)
}

func TestConcreteScenario(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, 140, 1300)
	require.NoError(err)
	addr := created.Address

	m, err := f.at(start+1_000).InitializePools(ctx, f.creator, addr, f.mint)
	require.NoError(err)
	higher, higherBump, err := derive.Pool(consts.Higher, addr, consts.Namespace)
	require.NoError(err)
	lower, lowerBump, err := derive.Pool(consts.Lower, addr, consts.Namespace)
	require.NoError(err)
	require.Equal(higherBump, m.HigherPoolBump)
	require.Equal(lowerBump, m.LowerPoolBump)
	require.Equal(f.mint, m.Mint)

	m, err = f.at(start+1_299_999).CancelMarket(ctx, f.creator, addr)
	require.NoError(err)
	require.Equal(storage.StateCancelled, m.State)
	require.True(m.Closed)

	// Empty pools are closed immediately.
	_, err = custody.GetAccount(ctx, f.mu, higher)
	require.ErrorIs(err, custody.ErrAccountNotFound)
	_, err = custody.GetAccount(ctx, f.mu, lower)
	require.ErrorIs(err, custody.ErrAccountNotFound)

	_, err = f.at(start+1_299_999).CancelMarket(ctx, f.creator, addr)
	require.ErrorIs(err, ErrInvalidMarketState)
}

func TestCancelMarket(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.params.CustodyDeposit = 3
	require.NoError(storage.SetBalance(ctx, f.mu, f.creator, 6))
	addr := f.open()

	alice := f.bettor(40)
	bob := f.bettor(40)
	_, err := f.at(start).PlaceBet(ctx, alice, addr, consts.Higher, f.mint, 30)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, alice, addr, consts.Lower, f.mint, 5)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, bob, addr, consts.Lower, f.mint, 20)
	require.NoError(err)

	_, err = f.at(start).CancelMarket(ctx, alice, addr)
	require.ErrorIs(err, ErrUnauthorized)

	m, err := f.at(start+10).CancelMarket(ctx, f.creator, addr)
	require.NoError(err)
	require.Equal(storage.StateCancelled, m.State)
	require.False(m.Closed)

	// Everything against a cancelled market is refused.
	_, err = f.at(start+20).PlaceBet(ctx, bob, addr, consts.Higher, f.mint, 1)
	require.ErrorIs(err, ErrInvalidMarketState)
	_, err = f.at(expiry).Resolve(ctx, addr, f.sample(150, expiry))
	require.ErrorIs(err, ErrInvalidMarketState)
	_, err = f.at(start+20).CancelMarket(ctx, f.creator, addr)
	require.ErrorIs(err, ErrInvalidMarketState)
	_, err = f.at(expiry).Redeem(ctx, alice, addr, f.mint)
	require.ErrorIs(err, ErrInvalidMarketState)

	refunded, err := f.at(start+30).RefundOnCancel(ctx, alice, addr, f.mint)
	require.NoError(err)
	require.Equal(uint64(35), refunded)
	require.Equal(uint64(40), f.balance(alice))

	refunded, err = f.at(start+40).RefundOnCancel(ctx, alice, addr, f.mint)
	require.NoError(err)
	require.Zero(refunded)
	require.Equal(uint64(40), f.balance(alice))

	refunded, err = f.at(expiry+1).RefundOnCancel(ctx, bob, addr, f.mint)
	require.NoError(err)
	require.Equal(uint64(20), refunded)
	require.Equal(uint64(40), f.balance(bob))

	require.Zero(f.balance(f.poolAddr(consts.Higher, addr)))
	require.Zero(f.balance(f.poolAddr(consts.Lower, addr)))

	// Creator reclaims the pool deposits once the lock period is over.
	lockEnd := expiry + int64(f.params.LockPeriod)*1000
	_, err = f.at(lockEnd).FinalizeMarket(ctx, f.creator, addr)
	require.ErrorIs(err, ErrLockPeriodNotOver)
	swept, err := f.at(lockEnd+1).FinalizeMarket(ctx, f.creator, addr)
	require.NoError(err)
	require.Zero(swept)
	bal, err := storage.GetBalance(ctx, f.mu, f.creator)
	require.NoError(err)
	require.Equal(uint64(6), bal)

	_, err = f.at(lockEnd+2).RefundOnCancel(ctx, alice, addr, f.mint)
	require.ErrorIs(err, ErrMarketClosed)
}

func TestCancelMarket_Rejected(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.at(start).InitializeMarket(ctx, f.creator, testFeed, testTarget, testDuration)
	require.NoError(err)
	_, err = f.at(expiry).CancelMarket(ctx, f.creator, created.Address)
	require.ErrorIs(err, ErrMarketNotCancellable)
	require.Equal(storage.StateInitializedMarket, f.market(created.Address).State)

	// A market without pools has nothing to close.
	m, err := f.at(expiry-1).CancelMarket(ctx, f.creator, created.Address)
	require.NoError(err)
	require.True(m.Closed)
	_, err = f.at(expiry).InitializePools(ctx, f.creator, created.Address, f.mint)
	require.ErrorIs(err, ErrInvalidMarketState)
}

func TestResolveAndRedeem(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	addr := f.open()

	alice := f.bettor(100)
	bob := f.bettor(100)
	carol := f.bettor(100)
	_, err := f.at(start).PlaceBet(ctx, alice, addr, consts.Higher, f.mint, 10)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, bob, addr, consts.Higher, f.mint, 20)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, carol, addr, consts.Lower, f.mint, 45)
	require.NoError(err)

	_, err = f.at(expiry-1).Resolve(ctx, addr, f.sample(testTarget, expiry-1))
	require.ErrorIs(err, ErrMarketNotExpired)
	_, err = f.at(expiry).Redeem(ctx, alice, addr, f.mint)
	require.ErrorIs(err, ErrInvalidMarketState)

	// Price equal to the target goes to Higher.
	m, err := f.at(expiry+2_000).Resolve(ctx, addr, f.sample(testTarget, expiry+1_000))
	require.NoError(err)
	require.Equal(storage.StateResolved, m.State)
	require.Equal(consts.Higher, m.WinningSide)
	require.Equal(testTarget, m.ResolvedPrice)
	require.Equal(uint64(30), m.HigherTotal)
	require.Equal(uint64(45), m.LowerTotal)

	_, err = f.at(expiry+3_000).Resolve(ctx, addr, f.sample(0, expiry+2_500))
	require.ErrorIs(err, ErrInvalidMarketState)

	r, err := f.at(expiry+5_000).Redeem(ctx, alice, addr, f.mint)
	require.NoError(err)
	require.Equal(uint64(25), r.Payout) // 10 * 75 / 30
	require.Equal(uint64(115), f.balance(alice))

	r, err = f.at(expiry+5_000).Redeem(ctx, carol, addr, f.mint)
	require.NoError(err)
	require.Zero(r.Payout)
	require.Equal([]consts.Side{consts.Lower}, r.Settled)
	bet, err := storage.GetBet(ctx, f.mu, addr, carol, consts.Lower)
	require.NoError(err)
	require.True(bet.Settled)

	_, err = f.at(expiry+6_000).Redeem(ctx, alice, addr, f.mint)
	require.ErrorIs(err, ErrNoWinningBet)
	_, err = f.at(expiry+6_000).Redeem(ctx, carol, addr, f.mint)
	require.ErrorIs(err, ErrNoWinningBet)
	_, err = f.at(expiry+6_000).Redeem(ctx, f.bettor(0), addr, f.mint)
	require.ErrorIs(err, ErrNoWinningBet)

	r, err = f.at(expiry+7_000).Redeem(ctx, bob, addr, f.mint)
	require.NoError(err)
	require.Equal(uint64(50), r.Payout) // 20 * 75 / 30
	require.Zero(f.balance(f.poolAddr(consts.Higher, addr)) + f.balance(f.poolAddr(consts.Lower, addr)))

	_, err = f.at(expiry+8_000).CancelMarket(ctx, f.creator, addr)
	require.ErrorIs(err, ErrInvalidMarketState)
}

func TestResolve_LowerWins(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	addr := f.open()

	alice := f.bettor(10)
	_, err := f.at(start).PlaceBet(ctx, alice, addr, consts.Higher, f.mint, 4)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, alice, addr, consts.Lower, f.mint, 6)
	require.NoError(err)

	m, err := f.at(expiry).Resolve(ctx, addr, f.sample(testTarget-1, expiry))
	require.NoError(err)
	require.Equal(consts.Lower, m.WinningSide)

	r, err := f.at(expiry).Redeem(ctx, alice, addr, f.mint)
	require.NoError(err)
	require.Equal(uint64(10), r.Payout)
	require.ElementsMatch([]consts.Side{consts.Higher, consts.Lower}, r.Settled)
	require.Equal(uint64(10), f.balance(alice))
}

func TestResolve_RejectsSample(t *testing.T) {
	ctx := context.Background()
	maxAge := int64(consts.DefaultMaxSampleAge) * 1000

	tests := []struct {
		name   string
		now    int64
		sample func(*fixture) *oracle.Sample
	}{
		{"nil sample", expiry, func(*fixture) *oracle.Sample { return nil }},
		{"other feed", expiry, func(f *fixture) *oracle.Sample {
			s := f.sample(150, expiry)
			copy(s.FeedID[:], otherFeed)
			return s
		}},
		{"before expiry", expiry + 10, func(f *fixture) *oracle.Sample { return f.sample(150, expiry-1) }},
		{"after now", expiry, func(f *fixture) *oracle.Sample { return f.sample(150, expiry+1) }},
		{"too old", expiry + maxAge + 1, func(f *fixture) *oracle.Sample { return f.sample(150, expiry) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t)
			addr := f.open()

			_, err := f.at(tt.now).Resolve(ctx, addr, tt.sample(f))
			require.ErrorIs(err, ErrStaleOrMismatchedFeed)
			require.Equal(storage.StatePoolsInitialized, f.market(addr).State)
		})
	}

	t.Run("sample age overflows", func(t *testing.T) {
		require := require.New(t)
		f := newFixture(t)
		addr := f.open()
		f.params.MaxSampleAge = math.MaxUint64
		_, err := f.at(expiry).Resolve(ctx, addr, f.sample(150, expiry))
		require.ErrorIs(err, ErrOverflow)
		require.Equal(storage.StatePoolsInitialized, f.market(addr).State)
	})

	t.Run("oldest fresh sample", func(t *testing.T) {
		f := newFixture(t)
		addr := f.open()
		_, err := f.at(expiry+maxAge).Resolve(ctx, addr, f.sample(150, expiry))
		require.NoError(t, err)
	})
}

func TestResolveFromOracle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	addr := f.open()

	_, err := f.at(expiry).ResolveFromOracle(ctx, addr, oracle.NewStateReader(f.mu))
	require.ErrorIs(err, ErrStaleOrMismatchedFeed)

	authority := codec.CreateAddress(0, ids.GenerateTestID())
	require.NoError(oracle.Publish(ctx, f.mu, authority, authority, f.sample(139, expiry+10), expiry+10))

	m, err := f.at(expiry+20).ResolveFromOracle(ctx, addr, oracle.NewStateReader(f.mu))
	require.NoError(err)
	require.Equal(consts.Lower, m.WinningSide)
}

func TestFinalizeMarket_SweepsDust(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	addr := f.open()

	a := f.bettor(1)
	b := f.bettor(2)
	c := f.bettor(10)
	_, err := f.at(start).PlaceBet(ctx, a, addr, consts.Higher, f.mint, 1)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, b, addr, consts.Higher, f.mint, 2)
	require.NoError(err)
	_, err = f.at(start).PlaceBet(ctx, c, addr, consts.Lower, f.mint, 10)
	require.NoError(err)

	_, err = f.at(expiry).Resolve(ctx, addr, f.sample(200, expiry))
	require.NoError(err)

	_, err = f.at(expiry).FinalizeMarket(ctx, f.creator, addr)
	require.ErrorIs(err, ErrLockPeriodNotOver)

	ra, err := f.at(expiry).Redeem(ctx, a, addr, f.mint)
	require.NoError(err)
	rb, err := f.at(expiry).Redeem(ctx, b, addr, f.mint)
	require.NoError(err)
	require.Equal(uint64(4), ra.Payout)
	require.Equal(uint64(8), rb.Payout)

	lockEnd := expiry + int64(f.params.LockPeriod)*1000
	_, err = f.at(lockEnd+1).FinalizeMarket(ctx, a, addr)
	require.ErrorIs(err, ErrUnauthorized)

	swept, err := f.at(lockEnd+1).FinalizeMarket(ctx, f.creator, addr)
	require.NoError(err)
	require.Equal(uint64(1), swept)
	require.Equal(uint64(1), f.balance(f.creator))
	require.True(f.market(addr).Closed)

	_, err = f.at(lockEnd+2).FinalizeMarket(ctx, f.creator, addr)
	require.ErrorIs(err, ErrMarketClosed)
	_, err = f.at(lockEnd+2).Redeem(ctx, c, addr, f.mint)
	require.ErrorIs(err, ErrMarketClosed)
}

func TestFinalizeMarket_LiveMarket(t *testing.T) {
	f := newFixture(t)
	addr := f.open()
	_, err := f.at(math.MaxInt64).FinalizeMarket(context.Background(), f.creator, addr)
	require.ErrorIs(t, err, ErrInvalidMarketState)
}

func TestPayout(t *testing.T) {
	tests := []struct {
		name                  string
		amount, higher, lower uint64
		winning               uint64
		want                  uint64
		wantErr               error
	}{
		{"sole winner takes all", 10, 10, 90, 10, 100, nil},
		{"floor", 1, 3, 10, 3, 4, nil},
		{"no losers", 7, 7, 0, 7, 7, nil},
		{"wide intermediate", math.MaxUint64 / 2, math.MaxUint64 / 2, math.MaxUint64 / 2, math.MaxUint64 / 2, math.MaxUint64 - 1, nil},
		{"result too large", math.MaxUint64, 1, 1, 1, 0, ErrOverflow},
		{"pool total overflows", 1, math.MaxUint64, 1, math.MaxUint64, 0, ErrOverflow},
		{"empty winning pool", 1, 0, 5, 0, 0, ErrNoWinningBet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Payout(tt.amount, tt.higher, tt.lower, tt.winning)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTransitions(t *testing.T) {
	require := require.New(t)
	all := []storage.MarketState{
		storage.StateUninitialized,
		storage.StateInitializedMarket,
		storage.StatePoolsInitialized,
		storage.StateResolved,
		storage.StateCancelled,
	}
	for _, from := range []storage.MarketState{storage.StateResolved, storage.StateCancelled} {
		for _, to := range all {
			require.ErrorIs(checkTransition(from, to), ErrInvalidMarketState)
		}
	}
	require.NoError(checkTransition(storage.StatePoolsInitialized, storage.StateCancelled))
	require.ErrorIs(checkTransition(storage.StateInitializedMarket, storage.StateResolved), ErrInvalidMarketState)
}
