// Package derive computes program derived addresses for markets and pools.
//
// An address is the sha256 of its seeds, a one byte bump, the program
// namespace and a fixed marker. The bump is searched from 255 downwards and
// the first digest that does not decode to an ed25519 point is kept, so no
// private key can ever sign for a derived account. Off-chain clients that run
// the same search find the same accounts without a lookup table.
package derive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"filippo.io/edwards25519"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/hypersdk/codec"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/feed"
)

// MaxSeedLen bounds a single seed.
const MaxSeedLen = 64

var (
	ErrNoViableBump = errors.New("no viable bump found for seeds")
	ErrSeedTooLong  = errors.New("seed exceeds max seed length")
	ErrBumpMismatch = errors.New("address does not match seeds and bump")
)

// MarketSeeds returns the seed material for a market account.
func MarketSeeds(creator codec.Address, feedID feed.ID, targetPrice uint64, marketDuration uint64) [][]byte {
	feedHash := feedID.Hash()
	return [][]byte{
		creator[:],
		feedHash[:],
		binary.LittleEndian.AppendUint64(nil, targetPrice),
		binary.LittleEndian.AppendUint64(nil, marketDuration),
	}
}

// PoolSeeds returns the seed material for the pool of side under market.
func PoolSeeds(side consts.Side, market codec.Address) ([][]byte, error) {
	tag, err := side.Seed()
	if err != nil {
		return nil, err
	}
	return [][]byte{[]byte(tag), market[:]}, nil
}

// Market derives the market account address for the given tuple.
func Market(
	creator codec.Address,
	feedID feed.ID,
	targetPrice uint64,
	marketDuration uint64,
	namespace []byte,
) (codec.Address, uint8, error) {
	return Find(MarketSeeds(creator, feedID, targetPrice, marketDuration), namespace)
}

// Pool derives the escrow account address for side under market.
func Pool(side consts.Side, market codec.Address, namespace []byte) (codec.Address, uint8, error) {
	seeds, err := PoolSeeds(side, market)
	if err != nil {
		return codec.EmptyAddress, 0, err
	}
	return Find(seeds, namespace)
}

// Find searches for the highest bump that yields an off-curve address.
func Find(seeds [][]byte, namespace []byte) (codec.Address, uint8, error) {
	for bump := math.MaxUint8; bump >= 0; bump-- {
		addr, ok, err := Create(seeds, uint8(bump), namespace)
		if err != nil {
			return codec.EmptyAddress, 0, err
		}
		if ok {
			return addr, uint8(bump), nil
		}
	}
	return codec.EmptyAddress, 0, ErrNoViableBump
}

// Create hashes seeds with a given bump. ok is false when the digest lands on
// the ed25519 curve and must not be used.
func Create(seeds [][]byte, bump uint8, namespace []byte) (codec.Address, bool, error) {
	size := len(namespace) + len(consts.PDAMarker) + 1
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return codec.EmptyAddress, false, fmt.Errorf("%w: %d > %d", ErrSeedTooLong, len(seed), MaxSeedLen)
		}
		size += len(seed)
	}
	buf := make([]byte, 0, size)
	for _, seed := range seeds {
		buf = append(buf, seed...)
	}
	buf = append(buf, bump)
	buf = append(buf, namespace...)
	buf = append(buf, consts.PDAMarker...)

	digest := hashing.ComputeHash256Array(buf)
	if onCurve(digest[:]) {
		return codec.EmptyAddress, false, nil
	}
	return codec.CreateAddress(consts.DerivedAddressTypeID, ids.ID(digest)), true, nil
}

// Verify re-derives an address from seeds and a stored bump.
func Verify(addr codec.Address, seeds [][]byte, bump uint8, namespace []byte) error {
	expected, ok, err := Create(seeds, bump, namespace)
	if err != nil {
		return err
	}
	if !ok || expected != addr {
		return fmt.Errorf("%w: bump %d", ErrBumpMismatch, bump)
	}
	return nil
}

func onCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
