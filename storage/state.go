package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"
)

// State prefixes. 0x0-0x2 are taken by the metadata manager (height,
// timestamp, fee).
const (
	// BalancePrefix | Address -> uint64 native balance
	BalancePrefix byte = 0x3

	// MarketPrefix | MarketAddress -> Market
	MarketPrefix byte = 0x4

	// BetPrefix | MarketAddress | Owner | Side -> Bet
	BetPrefix byte = 0x5

	// ParamsPrefix -> Params
	ParamsPrefix byte = 0x6

	// CustodyAccountPrefix | Account -> custody account record
	CustodyAccountPrefix byte = 0x7

	// CustodyBalancePrefix | Account | Mint -> uint64
	CustodyBalancePrefix byte = 0x8

	// OracleSamplePrefix | sha256(FeedID) -> price sample
	OracleSamplePrefix byte = 0x9
)

const (
	// ChunkSize is the state value chunk size used to bound storage cost.
	ChunkSize = 64
	Uint16Len = 2

	BalanceChunks uint16 = 1
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Chunks returns the number of chunks the chain charges for a value of size
// bytes, which is always one more than the full chunks it fills.
func Chunks(size int) uint16 {
	return uint16(size/ChunkSize + 1)
}

// Key builds a state key from a prefix and parts, suffixed with the max
// chunk count of the stored value.
func Key(prefix byte, chunks uint16, parts ...[]byte) []byte {
	size := 1 + Uint16Len
	for _, part := range parts {
		size += len(part)
	}
	k := make([]byte, 0, size)
	k = append(k, prefix)
	for _, part := range parts {
		k = append(k, part...)
	}
	return binary.BigEndian.AppendUint16(k, chunks)
}

// BalanceKey returns the state key for an address's native token balance.
func BalanceKey(addr codec.Address) []byte {
	return Key(BalancePrefix, BalanceChunks, addr[:])
}

// GetBalance retrieves the native token balance for a given address.
func GetBalance(ctx context.Context, im state.Immutable, addr codec.Address) (uint64, error) {
	return GetUint64(ctx, im, BalanceKey(addr))
}

// SetBalance sets the native token balance for a given address.
func SetBalance(ctx context.Context, mu state.Mutable, addr codec.Address, amount uint64) error {
	return SetUint64(ctx, mu, BalanceKey(addr), amount)
}

// DeductBalance subtracts an amount from an address's native token balance.
// It returns ErrInsufficientBalance if the deduction is not possible.
func DeductBalance(ctx context.Context, mu state.Mutable, addr codec.Address, amount uint64) error {
	current, err := GetBalance(ctx, mu, addr)
	if err != nil {
		return err
	}
	if current < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, addr, current, amount)
	}
	return SetBalance(ctx, mu, addr, current-amount)
}

// AddBalance adds an amount to an address's native token balance.
func AddBalance(ctx context.Context, mu state.Mutable, addr codec.Address, amount uint64) error {
	current, err := GetBalance(ctx, mu, addr)
	if err != nil {
		return err
	}
	next := current + amount
	if next < current {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, addr)
	}
	return SetBalance(ctx, mu, addr, next)
}

// GetUint64 reads a packed uint64 value, treating a missing key as zero.
func GetUint64(ctx context.Context, im state.Immutable, key []byte) (uint64, error) {
	v, err := im.GetValue(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return database.ParseUInt64(v)
}

// SetUint64 writes a packed uint64 value, removing the key when amount is zero.
func SetUint64(ctx context.Context, mu state.Mutable, key []byte, amount uint64) error {
	if amount == 0 {
		err := mu.Remove(ctx, key)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
		return nil
	}
	return mu.Insert(ctx, key, database.PackUInt64(amount))
}
