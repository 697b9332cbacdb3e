package genesis

import (
	"errors"
	"fmt"

	"github.com/ava-labs/hypersdk/codec"
	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/chokosabe/pricepredictionvm/consts"
)

var ErrInvalidAddress = errors.New("invalid address")

// FormatAddress renders addr as a bech32 string with the VM's HRP.
func FormatAddress(addr codec.Address) (string, error) {
	data, err := bech32.ConvertBits(addr[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(consts.HRP, data)
}

// ParseAddress decodes a bech32 address with the VM's HRP.
func ParseAddress(s string) (codec.Address, error) {
	hrp, data5bit, err := bech32.Decode(s)
	if err != nil {
		return codec.EmptyAddress, fmt.Errorf("%w %q: %w", ErrInvalidAddress, s, err)
	}
	if hrp != consts.HRP {
		return codec.EmptyAddress, fmt.Errorf("%w %q: hrp %q, expected %q", ErrInvalidAddress, s, hrp, consts.HRP)
	}
	data, err := bech32.ConvertBits(data5bit, 5, 8, false)
	if err != nil {
		return codec.EmptyAddress, fmt.Errorf("%w %q: %w", ErrInvalidAddress, s, err)
	}
	if len(data) != codec.AddressLen {
		return codec.EmptyAddress, fmt.Errorf("%w %q: got %d bytes, expected %d", ErrInvalidAddress, s, len(data), codec.AddressLen)
	}
	var addr codec.Address
	copy(addr[:], data)
	return addr, nil
}
