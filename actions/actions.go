package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/codec"
	"github.com/ava-labs/hypersdk/state"

	"github.com/chokosabe/pricepredictionvm/consts"
	"github.com/chokosabe/pricepredictionvm/custody"
	"github.com/chokosabe/pricepredictionvm/derive"
	"github.com/chokosabe/pricepredictionvm/market"
	"github.com/chokosabe/pricepredictionvm/storage"
)

// MaxResultSize bounds the packed size of any action result.
const MaxResultSize = 256

var ErrUnmarshalEmpty = errors.New("cannot unmarshal empty bytes")

func marshal(typeID uint8, v any, size int) []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, size),
		MaxSize: size,
	}
	p.PackByte(typeID)
	if err := codec.LinearCodec.MarshalInto(v, p); err != nil {
		panic(fmt.Errorf("failed to marshal type %d: %w", typeID, err))
	}
	return p.Bytes
}

func unmarshal(typeID uint8, b []byte, dst any) error {
	if len(b) == 0 {
		return ErrUnmarshalEmpty
	}
	if b[0] != typeID {
		return fmt.Errorf("unexpected typeID: %d != %d", b[0], typeID)
	}
	return codec.LinearCodec.UnmarshalFrom(&wrappers.Packer{Bytes: b[1:]}, dst)
}

// newLedger binds the market ledger to the block being executed.
func newLedger(ctx context.Context, mu state.Mutable, timestamp int64) (*market.Ledger, error) {
	params, err := storage.GetParams(ctx, mu)
	if err != nil {
		return nil, fmt.Errorf("failed to load params: %w", err)
	}
	return market.NewLedger(mu, params, timestamp), nil
}

type pools struct {
	higher codec.Address
	lower  codec.Address
}

func (p pools) of(side consts.Side) codec.Address {
	if side == consts.Higher {
		return p.higher
	}
	return p.lower
}

func derivePools(m codec.Address) (pools, error) {
	higher, _, err := derive.Pool(consts.Higher, m, consts.Namespace)
	if err != nil {
		return pools{}, err
	}
	lower, _, err := derive.Pool(consts.Lower, m, consts.Namespace)
	if err != nil {
		return pools{}, err
	}
	return pools{higher: higher, lower: lower}, nil
}

// checkMint rejects a declared mint that differs from the market's once its
// pools exist, since state keys were declared for the declared mint.
func checkMint(ctx context.Context, im state.Immutable, m codec.Address, mint ids.ID) error {
	rec, err := storage.GetMarket(ctx, im, m)
	if err != nil {
		return err
	}
	if rec.State != storage.StateInitializedMarket && rec.Mint != mint {
		return fmt.Errorf("%w: got %s, market uses %s", market.ErrMintMismatch, mint, rec.Mint)
	}
	return nil
}

// keys is a small builder over state.Keys.
type keys state.Keys

func (k keys) add(key []byte, perm state.Permissions) keys {
	k[string(key)] |= perm
	return k
}

func (k keys) pool(p codec.Address, mint ids.ID, account, balance state.Permissions) keys {
	if account != 0 {
		k.add(custody.AccountKey(p), account)
	}
	if balance != 0 {
		k.add(custody.BalanceKey(p, mint), balance)
	}
	return k
}

func newKeys() keys {
	return keys{string(storage.ParamsKey()): state.Read}
}

const readWrite = state.Read | state.Write
