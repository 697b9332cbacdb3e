package market

import (
	"errors"

	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/chokosabe/pricepredictionvm/custody"
	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/storage"
)

var (
	ErrMarketAlreadyExists   = errors.New("market already exists")
	ErrInvalidMarketState    = errors.New("invalid market state")
	ErrMarketExpired         = errors.New("market expired")
	ErrMarketNotExpired      = errors.New("market not expired")
	ErrMarketNotCancellable  = errors.New("market not cancellable")
	ErrNoWinningBet          = errors.New("no winning bet")
	ErrStaleOrMismatchedFeed = errors.New("stale or mismatched feed")
	ErrShortMarketDuration   = errors.New("market duration too short")
	ErrUnauthorized          = errors.New("only the market creator can do this")
	ErrAmountZero            = errors.New("amount cannot be zero")
	ErrMintMismatch          = errors.New("mint does not match market mint")
	ErrLockPeriodNotOver     = errors.New("market lock period not over")
	ErrMarketClosed          = errors.New("market custody already closed")
	ErrInvalidSide           = errors.New("invalid side")

	// Kinds raised by collaborators, re-exported so callers need one package.
	ErrIncorrectFeedIDLength = feed.ErrIncorrectFeedIDLength
	ErrInsufficientFunds     = custody.ErrInsufficientFunds
	ErrMarketNotFound        = storage.ErrMarketNotFound
	ErrOverflow              = safemath.ErrOverflow
)
