// Package feed validates and canonicalizes oracle price feed identifiers.
//
// A feed identifier is the textual 0x-prefixed 64 hex digit form published by
// the oracle. Its UTF-8 encoding is stored verbatim in a fixed 66-byte field.
package feed

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// IDLen is the canonical byte length of a feed identifier.
const IDLen = 66

var ErrIncorrectFeedIDLength = errors.New("feed id is expected to have 66 bytes")

// ID is the canonical fixed-length form of a feed identifier.
type ID [IDLen]byte

// Validate rejects any feed identifier whose encoded length is not IDLen.
func Validate(feedID string) error {
	if len(feedID) != IDLen {
		return fmt.Errorf("%w: got %d", ErrIncorrectFeedIDLength, len(feedID))
	}
	return nil
}

// Parse validates feedID and returns its canonical form.
func Parse(feedID string) (ID, error) {
	var id ID
	if err := Validate(feedID); err != nil {
		return id, err
	}
	copy(id[:], feedID)
	return id, nil
}

// FromBytes copies a stored 66-byte field into an ID.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != IDLen {
		return id, fmt.Errorf("%w: got %d", ErrIncorrectFeedIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Hash folds the identifier into a constant-size seed.
func (id ID) Hash() ids.ID {
	return ids.ID(hashing.ComputeHash256Array(id[:]))
}

func (id ID) String() string {
	return string(id[:])
}

func (id ID) MarshalText() ([]byte, error) {
	return id[:], nil
}

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := FromBytes(b)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
