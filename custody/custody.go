// Package custody keeps per-mint token balances and the custody accounts
// that hold pooled stakes on behalf of a market.
package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/storage"
)

const (
	accountVersion byte = 1
	accountSize         = 1 + codec.AddressLen + ids.IDLen + 8

	balanceChunks uint16 = 1
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountExists     = errors.New("custody account already exists")
	ErrAccountNotFound   = errors.New("custody account not found")
	ErrAccountNotEmpty   = errors.New("custody account is not empty")
	ErrWrongMint         = errors.New("custody account holds a different mint")
	ErrAmountZero        = errors.New("amount cannot be zero")
	ErrBalanceOverflow   = errors.New("balance overflow")

	accountChunks = storage.Chunks(accountSize)
)

// Account is a token account owned by another address. Only the owner may
// move funds out of it; the owner check is the caller's.
type Account struct {
	Owner   codec.Address `json:"owner"`
	Mint    ids.ID        `json:"mint"`
	Deposit uint64        `json:"deposit"`
}

// AccountKey is the key of the custody account record at account.
func AccountKey(account codec.Address) []byte {
	return storage.Key(storage.CustodyAccountPrefix, accountChunks, account[:])
}

// BalanceKey is the key of holder's balance of mint. Wallets and custody
// accounts share the same balance space.
func BalanceKey(holder codec.Address, mint ids.ID) []byte {
	return storage.Key(storage.CustodyBalancePrefix, balanceChunks, holder[:], mint[:])
}

// Ledger moves tokens between holders inside one state view.
type Ledger struct {
	mu      state.Mutable
	deposit uint64
}

// NewLedger returns a custody ledger over mu that charges deposit native
// units for every account it creates.
func NewLedger(mu state.Mutable, deposit uint64) *Ledger {
	return &Ledger{mu: mu, deposit: deposit}
}

// CreateAccount opens a custody account for mint owned by owner. The deposit
// is charged to payer's native balance and remembered for the refund.
func (l *Ledger) CreateAccount(ctx context.Context, account, owner codec.Address, mint ids.ID, payer codec.Address) error {
	if _, err := l.mu.GetValue(ctx, AccountKey(account)); err == nil {
		return fmt.Errorf("%w: %s", ErrAccountExists, account)
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if l.deposit > 0 {
		if err := storage.DeductBalance(ctx, l.mu, payer, l.deposit); err != nil {
			return fmt.Errorf("%w: account deposit: %w", ErrInsufficientFunds, err)
		}
	}

	p := codec.NewWriter(accountSize, accountSize)
	p.PackByte(accountVersion)
	p.PackFixedBytes(owner[:])
	p.PackFixedBytes(mint[:])
	p.PackUint64(l.deposit)
	if err := p.Err(); err != nil {
		return err
	}
	return l.mu.Insert(ctx, AccountKey(account), p.Bytes())
}

// GetAccount loads the custody account record at account.
func (l *Ledger) GetAccount(ctx context.Context, account codec.Address) (*Account, error) {
	return GetAccount(ctx, l.mu, account)
}

func GetAccount(ctx context.Context, im state.Immutable, account codec.Address) (*Account, error) {
	v, err := im.GetValue(ctx, AccountKey(account))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	if err != nil {
		return nil, err
	}
	if len(v) != accountSize || v[0] != accountVersion {
		return nil, fmt.Errorf("%w: custody account %s", storage.ErrUnsupportedVersion, account)
	}
	p := codec.NewReader(v, accountSize)
	p.UnpackByte()
	a := &Account{}
	p.UnpackAddress(&a.Owner)
	storage.UnpackFixed(p, a.Mint[:])
	a.Deposit = p.UnpackUint64(false)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// Balance returns holder's balance of mint.
func (l *Ledger) Balance(ctx context.Context, holder codec.Address, mint ids.ID) (uint64, error) {
	return Balance(ctx, l.mu, holder, mint)
}

func Balance(ctx context.Context, im state.Immutable, holder codec.Address, mint ids.ID) (uint64, error) {
	bal, err := storage.GetUint64(ctx, im, BalanceKey(holder, mint))
	if err != nil {
		return 0, fmt.Errorf("failed to get %s balance of %s: %w", mint, holder, err)
	}
	return bal, nil
}

// Credit adds amount of mint to holder. It is how genesis seeds balances;
// nothing else creates tokens.
func (l *Ledger) Credit(ctx context.Context, holder codec.Address, mint ids.ID, amount uint64) error {
	bal, err := l.Balance(ctx, holder, mint)
	if err != nil {
		return err
	}
	next := bal + amount
	if next < bal {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, holder)
	}
	return storage.SetUint64(ctx, l.mu, BalanceKey(holder, mint), next)
}

// Transfer moves amount of mint from one holder to another. A destination
// custody account must hold the same mint.
func (l *Ledger) Transfer(ctx context.Context, from, to codec.Address, mint ids.ID, amount uint64) error {
	if amount == 0 {
		return ErrAmountZero
	}
	if err := l.checkMint(ctx, to, mint); err != nil {
		return err
	}

	fromBal, err := l.Balance(ctx, from, mint)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d of %s", ErrInsufficientFunds, from, fromBal, amount, mint)
	}
	if err := storage.SetUint64(ctx, l.mu, BalanceKey(from, mint), fromBal-amount); err != nil {
		return err
	}
	return l.Credit(ctx, to, mint, amount)
}

// CloseAccount removes an empty custody account and refunds its deposit to
// recipient's native balance.
func (l *Ledger) CloseAccount(ctx context.Context, account, recipient codec.Address) error {
	a, err := l.GetAccount(ctx, account)
	if err != nil {
		return err
	}
	bal, err := l.Balance(ctx, account, a.Mint)
	if err != nil {
		return err
	}
	if bal != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrAccountNotEmpty, account, bal)
	}
	if err := l.mu.Remove(ctx, AccountKey(account)); err != nil {
		return err
	}
	if a.Deposit == 0 {
		return nil
	}
	return storage.AddBalance(ctx, l.mu, recipient, a.Deposit)
}

func (l *Ledger) checkMint(ctx context.Context, holder codec.Address, mint ids.ID) error {
	// Custody accounts only live at derived addresses.
	if holder[0] != consts.DerivedAddressTypeID {
		return nil
	}
	a, err := l.GetAccount(ctx, holder)
	if errors.Is(err, ErrAccountNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if a.Mint != mint {
		return fmt.Errorf("%w: %s holds %s, got %s", ErrWrongMint, holder, a.Mint, mint)
	}
	return nil
}
