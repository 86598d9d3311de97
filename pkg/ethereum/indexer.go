package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

var _ core.OutboxIndexer = &OutboxIndexer{}

// OutboxIndexer reads Dispatch and CheckpointCached logs of an Outbox contract.
type OutboxIndexer struct {
	contract
	index core.IndexConf
}

// NewOutboxIndexer binds an indexer to the Outbox at locator. Log queries are split into
// windows of at most index.Chunk blocks. The indexer takes ownership of conn.
func NewOutboxIndexer(conn *core.Shared[Client], locator core.ContractLocator, index core.IndexConf, opts ...Option) *OutboxIndexer {
	return &OutboxIndexer{
		contract: newContract(conn, locator, outboxABI, "outbox_indexer", opts),
		index:    index,
	}
}

func (i *OutboxIndexer) GetBlockNumber(ctx context.Context) (uint32, error) {
	height, err := i.client().BlockNumber(ctx)
	if err != nil {
		return 0, core.CommunicationError("block number", err)
	}
	return core.NarrowUint32FromUint64(height)
}

// FetchSortedCheckpoints reads CheckpointCached logs in [from, to] and the outbox domain
// concurrently, then orders the checkpoints by block and transaction position.
func (i *OutboxIndexer) FetchSortedCheckpoints(ctx context.Context, from, to uint32) ([]core.CheckpointWithMeta, error) {
	var (
		logs   []types.Log
		domain uint32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		logs, err = i.filterLogs(gctx, "CheckpointCached", from, to)
		return err
	})
	g.Go(func() error {
		out, err := i.call(gctx, nil, "localDomain")
		if err != nil {
			return err
		}
		domain, err = convert[uint32]("localDomain", out[0])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]core.CheckpointEvent, 0, len(logs))
	for _, lg := range logs {
		var ev checkpointCachedEvent
		if err := i.bound.UnpackLog(&ev, "CheckpointCached", lg); err != nil {
			return nil, core.DecodeError("CheckpointCached log", err)
		}
		index, err := core.NarrowUint32(ev.Index)
		if err != nil {
			return nil, fmt.Errorf("CheckpointCached index in tx %s: %w", lg.TxHash.Hex(), err)
		}
		txIndex, err := core.NarrowUint32FromUint64(uint64(lg.TxIndex))
		if err != nil {
			return nil, err
		}
		logIndex, err := core.NarrowUint32FromUint64(uint64(lg.Index))
		if err != nil {
			return nil, err
		}
		events = append(events, core.CheckpointEvent{
			Root:        ev.Root,
			Index:       index,
			BlockNumber: lg.BlockNumber,
			TxIndex:     txIndex,
			LogIndex:    logIndex,
		})
	}

	return core.SortedCheckpoints(domain, events), nil
}

// FetchSortedMessages reads Dispatch logs in [from, to] ordered by leaf index.
func (i *OutboxIndexer) FetchSortedMessages(ctx context.Context, from, to uint32) ([]core.RawCommittedMessage, error) {
	logs, err := i.filterLogs(ctx, "Dispatch", from, to)
	if err != nil {
		return nil, err
	}

	events := make([]core.DispatchEvent, 0, len(logs))
	for _, lg := range logs {
		var ev dispatchEvent
		if err := i.bound.UnpackLog(&ev, "Dispatch", lg); err != nil {
			return nil, core.DecodeError("Dispatch log", err)
		}
		leafIndex, err := core.NarrowUint32(ev.LeafIndex)
		if err != nil {
			return nil, fmt.Errorf("Dispatch leaf index in tx %s: %w", lg.TxHash.Hex(), err)
		}
		events = append(events, core.DispatchEvent{
			LeafIndex: leafIndex,
			Message:   ev.Message,
		})
	}

	return core.SortedMessages(events)
}

// filterLogs queries the outbox's logs of one event type, one chunk at a time.
func (i *OutboxIndexer) filterLogs(ctx context.Context, event string, from, to uint32) ([]types.Log, error) {
	topic := i.abi.Events[event].ID

	var logs []types.Log
	for _, window := range core.RangeChunks(from, to, i.index.Chunk) {
		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(uint64(window.From)),
			ToBlock:   new(big.Int).SetUint64(uint64(window.To)),
			Addresses: []common.Address{i.address},
			Topics:    [][]common.Hash{{topic}},
		}
		batch, err := i.client().FilterLogs(ctx, query)
		if err != nil {
			return nil, core.CommunicationError("filter "+event+" logs", err)
		}
		i.logger.Debug("fetched logs", "event", event, "from", window.From, "to", window.To, "count", len(batch))
		for _, lg := range batch {
			if !lg.Removed {
				logs = append(logs, lg)
			}
		}
	}
	return logs, nil
}
