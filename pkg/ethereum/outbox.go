package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

var _ core.Outbox = &Outbox{}

// Outbox is a reference to an Outbox contract on an EVM chain.
type Outbox struct {
	contract
}

// NewOutbox binds the Outbox at locator. The adapter takes ownership of conn.
func NewOutbox(conn *core.Shared[Client], locator core.ContractLocator, opts ...Option) *Outbox {
	return &Outbox{contract: newContract(conn, locator, outboxABI, "outbox", opts)}
}

func (o *Outbox) Status(ctx context.Context, txID util.HexAddress) (*core.TxOutcome, error) {
	return status(ctx, o.client(), txID)
}

func (o *Outbox) ValidatorManager(ctx context.Context) (util.HexAddress, error) {
	out, err := o.call(ctx, nil, "validatorManager")
	if err != nil {
		return util.HexAddress{}, err
	}
	addr, err := convert[common.Address]("validatorManager", out[0])
	if err != nil {
		return util.HexAddress{}, err
	}
	return fromAddress(addr), nil
}

func (o *Outbox) LatestCachedRoot(ctx context.Context) (util.HexAddress, error) {
	out, err := o.call(ctx, nil, "latestCachedRoot")
	if err != nil {
		return util.HexAddress{}, err
	}
	root, err := convert[[32]byte]("latestCachedRoot", out[0])
	if err != nil {
		return util.HexAddress{}, err
	}
	return util.HexAddress(root), nil
}

// LatestCachedCheckpoint reads the cached root and index in one call, pinned to the lagged
// block when lag is set.
func (o *Outbox) LatestCachedCheckpoint(ctx context.Context, lag *uint64) (core.Checkpoint, error) {
	block, err := o.lagBlock(ctx, lag)
	if err != nil {
		return core.Checkpoint{}, err
	}

	out, err := o.call(ctx, block, "latestCachedCheckpoint")
	if err != nil {
		return core.Checkpoint{}, err
	}
	root, err := convert[[32]byte]("latestCachedCheckpoint", out[0])
	if err != nil {
		return core.Checkpoint{}, err
	}
	rawIndex, err := convert[*big.Int]("latestCachedCheckpoint", out[1])
	if err != nil {
		return core.Checkpoint{}, err
	}
	index, err := core.NarrowUint32(rawIndex)
	if err != nil {
		return core.Checkpoint{}, fmt.Errorf("latestCachedCheckpoint index: %w", err)
	}

	return core.Checkpoint{
		OutboxDomain: o.LocalDomain(),
		Root:         util.HexAddress(root),
		Index:        index,
	}, nil
}

func (o *Outbox) Dispatch(ctx context.Context, message core.Message) (core.TxOutcome, error) {
	return o.transact(ctx, 0, "dispatch", message.Destination, [32]byte(message.Recipient), message.Body)
}

// State panics with core.InvariantViolation if the contract reports a state value this
// adapter does not know.
func (o *Outbox) State(ctx context.Context) (core.State, error) {
	out, err := o.call(ctx, nil, "state")
	if err != nil {
		return 0, err
	}
	raw, err := convert[uint8]("state", out[0])
	if err != nil {
		return 0, err
	}
	return core.StateFromRaw(o.locator.String(), raw), nil
}

func (o *Outbox) Count(ctx context.Context) (uint32, error) {
	out, err := o.call(ctx, nil, "count")
	if err != nil {
		return 0, err
	}
	raw, err := convert[*big.Int]("count", out[0])
	if err != nil {
		return 0, err
	}
	count, err := core.NarrowUint32(raw)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

func (o *Outbox) CacheCheckpoint(ctx context.Context) (core.TxOutcome, error) {
	return o.transact(ctx, 0, "cacheCheckpoint")
}
