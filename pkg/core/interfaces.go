package core

import (
	"context"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
)

// Chain is the static identity shared by every capability. Neither method touches the network.
type Chain interface {
	LocalDomain() uint32
	Name() string
}

// Common is the read side shared by outbox-style contracts.
type Common interface {
	Chain

	// Status looks up a transaction receipt. It returns nil when the transaction is
	// unknown or still pending.
	Status(ctx context.Context, txID util.HexAddress) (*TxOutcome, error)
	ValidatorManager(ctx context.Context) (util.HexAddress, error)
	LatestCachedRoot(ctx context.Context) (util.HexAddress, error)
	// LatestCachedCheckpoint reads at the chain head when lag is nil, otherwise at
	// LagBlock(tip, *lag) with the tip resolved exactly once.
	LatestCachedCheckpoint(ctx context.Context, lag *uint64) (Checkpoint, error)
}

// Outbox is the dispatch side of the messaging contract.
type Outbox interface {
	Common

	Dispatch(ctx context.Context, message Message) (TxOutcome, error)
	// State panics with InvariantViolation on a raw value it does not recognize.
	State(ctx context.Context) (State, error)
	Count(ctx context.Context) (uint32, error)
	CacheCheckpoint(ctx context.Context) (TxOutcome, error)
}

// Mailbox is the message-processing side of the messaging contract.
type Mailbox interface {
	Chain

	Address() util.HexAddress
	// Count returns the leaf count, lag blocks behind the head when lag is set.
	Count(ctx context.Context, lag *uint64) (uint32, error)
	Delivered(ctx context.Context, id util.HexAddress) (bool, error)
	DefaultIsm(ctx context.Context) (util.HexAddress, error)
	RecipientIsm(ctx context.Context, recipient util.HexAddress) (util.HexAddress, error)
	Process(ctx context.Context, message Message, metadata []byte, gasLimit *uint64) (TxOutcome, error)
	// ProcessBatch submits every item atomically. Adapters without batch support return
	// ErrBatchingFailed without performing any remote call; see NoBatching.
	ProcessBatch(ctx context.Context, items []BatchItem) (TxOutcome, error)
	ProcessEstimateCosts(ctx context.Context, message Message, metadata []byte) (TxCostEstimate, error)
	// ProcessCalldata is computed locally and is the exact payload a submitter would send.
	ProcessCalldata(message Message, metadata []byte) []byte
}

// RoutingIsm selects the interchain security module that validates a message.
type RoutingIsm interface {
	Chain

	Route(ctx context.Context, message Message) (util.HexAddress, error)
}

// Indexer turns chain-native event queries into ordered checkpoint records.
type Indexer interface {
	GetBlockNumber(ctx context.Context) (uint32, error)
	// FetchSortedCheckpoints returns the checkpoint-cache events in [from, to] ordered by
	// block number and transaction position.
	FetchSortedCheckpoints(ctx context.Context, from, to uint32) ([]CheckpointWithMeta, error)
}

// OutboxIndexer additionally indexes dispatched messages.
type OutboxIndexer interface {
	Indexer

	// FetchSortedMessages returns the dispatch events in [from, to] with strictly
	// increasing leaf indexes.
	FetchSortedMessages(ctx context.Context, from, to uint32) ([]RawCommittedMessage, error)
}
