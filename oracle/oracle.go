// Package oracle stores the latest price sample published for each feed.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/feed"
	"github.com/chokosabe/pricepredictionvm/storage"
)

const (
	sampleVersion byte = 1
	SampleSize         = 1 + feed.IDLen + 8 + 8
)

var (
	ErrSampleNotFound        = errors.New("no price sample for feed")
	ErrUnauthorizedPublisher = errors.New("publisher is not the oracle authority")
	ErrSampleOutOfOrder      = errors.New("sample is not newer than the latest sample")
	ErrSampleInFuture        = errors.New("sample timestamp is in the future")

	sampleChunks = storage.Chunks(SampleSize)
)

// Sample is a price observation. Price uses the same fixed point as market
// target prices; Timestamp is unix ms.
type Sample struct {
	FeedID    feed.ID `json:"feedId"`
	Price     uint64  `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// Reader returns the latest sample for a feed.
type Reader interface {
	ReadLatestSample(ctx context.Context, feedID feed.ID) (*Sample, error)
}

// SampleKey is the state key of the latest sample for feedID.
func SampleKey(feedID feed.ID) []byte {
	h := feedID.Hash()
	return storage.Key(storage.OracleSamplePrefix, sampleChunks, h[:])
}

func (s *Sample) Marshal() ([]byte, error) {
	p := codec.NewWriter(SampleSize, SampleSize)
	p.PackByte(sampleVersion)
	p.PackFixedBytes(s.FeedID[:])
	p.PackUint64(s.Price)
	p.PackUint64(uint64(s.Timestamp))
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

func UnmarshalSample(b []byte) (*Sample, error) {
	if len(b) == 0 || b[0] != sampleVersion {
		return nil, fmt.Errorf("%w: price sample", storage.ErrUnsupportedVersion)
	}
	if len(b) != SampleSize {
		return nil, fmt.Errorf("%w: sample has %d bytes", storage.ErrInvalidRecordLength, len(b))
	}
	p := codec.NewReader(b, SampleSize)
	p.UnpackByte()
	s := &Sample{}
	storage.UnpackFixed(p, s.FeedID[:])
	s.Price = p.UnpackUint64(false)
	s.Timestamp = int64(p.UnpackUint64(false))
	if err := p.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// StateReader reads samples published on chain.
type StateReader struct {
	im state.Immutable
}

func NewStateReader(im state.Immutable) *StateReader {
	return &StateReader{im: im}
}

func (r *StateReader) ReadLatestSample(ctx context.Context, feedID feed.ID) (*Sample, error) {
	v, err := r.im.GetValue(ctx, SampleKey(feedID))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSampleNotFound, feedID)
	}
	if err != nil {
		return nil, err
	}
	return UnmarshalSample(v)
}

// Publish records s as the latest sample of its feed. Only authority may
// publish, and each feed's timestamps must strictly increase without passing
// now.
func Publish(
	ctx context.Context,
	mu state.Mutable,
	authority codec.Address,
	publisher codec.Address,
	s *Sample,
	now int64,
) error {
	if authority == codec.EmptyAddress || publisher != authority {
		return fmt.Errorf("%w: %s", ErrUnauthorizedPublisher, publisher)
	}
	if s.Timestamp > now {
		return fmt.Errorf("%w: %d > %d", ErrSampleInFuture, s.Timestamp, now)
	}
	latest, err := NewStateReader(mu).ReadLatestSample(ctx, s.FeedID)
	switch {
	case errors.Is(err, ErrSampleNotFound):
	case err != nil:
		return err
	case s.Timestamp <= latest.Timestamp:
		return fmt.Errorf("%w: %d <= %d", ErrSampleOutOfOrder, s.Timestamp, latest.Timestamp)
	}

	b, err := s.Marshal()
	if err != nil {
		return err
	}
	return mu.Insert(ctx, SampleKey(s.FeedID), b)
}
