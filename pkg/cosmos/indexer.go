package cosmos

import (
	"context"
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

const (
	dispatchEventType   = "wasm-mailbox_dispatch"
	checkpointEventType = "wasm-outbox_checkpoint_cached"

	contractAddressAttr = "_contract_address"
	leafIndexAttr       = "leaf_index"
	messageAttr         = "message"
	rootAttr            = "root"
	indexAttr           = "index"

	// txSearchPerPage is the largest page CometBFT serves.
	txSearchPerPage = 100
	// maxConcurrentPages bounds the in-flight TxSearch requests of one fetch.
	maxConcurrentPages = 4
)

var _ core.OutboxIndexer = &Indexer{}

// Indexer reads dispatch and checkpoint events emitted by a CosmWasm outbox contract.
type Indexer struct {
	contract
	index core.IndexConf
}

// NewIndexer binds an indexer to the contract at locator. Searches are split into windows
// of at most index.Chunk blocks. The indexer takes ownership of conn.
func NewIndexer(conn *core.Shared[*Conn], locator core.ContractLocator, index core.IndexConf, opts ...Option) (*Indexer, error) {
	c, err := newContract(conn, locator, "indexer", opts)
	if err != nil {
		return nil, err
	}
	return &Indexer{contract: c, index: index}, nil
}

func (i *Indexer) GetBlockNumber(ctx context.Context) (uint32, error) {
	status, err := i.searcher().Status(ctx)
	if err != nil {
		return 0, core.CommunicationError("status", err)
	}
	height := status.SyncInfo.LatestBlockHeight
	if height < 0 {
		return 0, fmt.Errorf("%w: negative block height %d", core.ErrDecode, height)
	}
	return core.NarrowUint32FromUint64(uint64(height))
}

// FetchSortedCheckpoints returns the checkpoints cached in [from, to], ordered by height,
// transaction position and event position.
func (i *Indexer) FetchSortedCheckpoints(ctx context.Context, from, to uint32) ([]core.CheckpointWithMeta, error) {
	observed, err := i.searchEvents(ctx, checkpointEventType, from, to)
	if err != nil {
		return nil, err
	}

	events := make([]core.CheckpointEvent, 0, len(observed))
	for _, ev := range observed {
		root, err := decodeHex32(ev.attrs[rootAttr])
		if err != nil {
			return nil, fmt.Errorf("checkpoint root at height %d: %w", ev.height, err)
		}
		index, err := core.ParseUint32(ev.attrs[indexAttr])
		if err != nil {
			return nil, fmt.Errorf("checkpoint index at height %d: %w", ev.height, err)
		}
		events = append(events, core.CheckpointEvent{
			Root:        root,
			Index:       index,
			BlockNumber: ev.height,
			TxIndex:     ev.txIndex,
			LogIndex:    ev.eventIndex,
		})
	}
	return core.SortedCheckpoints(i.LocalDomain(), events), nil
}

// FetchSortedMessages returns the messages dispatched in [from, to] ordered by leaf index.
func (i *Indexer) FetchSortedMessages(ctx context.Context, from, to uint32) ([]core.RawCommittedMessage, error) {
	observed, err := i.searchEvents(ctx, dispatchEventType, from, to)
	if err != nil {
		return nil, err
	}

	events := make([]core.DispatchEvent, 0, len(observed))
	for _, ev := range observed {
		leafIndex, err := core.ParseUint32(ev.attrs[leafIndexAttr])
		if err != nil {
			return nil, fmt.Errorf("dispatch leaf index at height %d: %w", ev.height, err)
		}
		message, err := decodeHex(ev.attrs[messageAttr])
		if err != nil {
			return nil, fmt.Errorf("dispatch message at height %d: %w", ev.height, err)
		}
		events = append(events, core.DispatchEvent{
			LeafIndex: leafIndex,
			Message:   message,
		})
	}
	return core.SortedMessages(events)
}

func (i *Indexer) searcher() TxSearcher {
	return i.conn.Get().Searcher
}

// observedEvent is one contract event with its position on chain.
type observedEvent struct {
	height     uint64
	txIndex    uint32
	eventIndex uint32
	attrs      map[string]string
}

// searchEvents collects the events of eventType emitted by the contract in [from, to].
func (i *Indexer) searchEvents(ctx context.Context, eventType string, from, to uint32) ([]observedEvent, error) {
	var events []observedEvent
	for _, window := range core.RangeChunks(from, to, i.index.Chunk) {
		txs, err := i.searchTxs(ctx, eventQuery(eventType, i.bech32, window))
		if err != nil {
			return nil, err
		}
		i.logger.Debug("fetched txs", "event", eventType, "from", window.From, "to", window.To, "count", len(txs))

		for _, tx := range txs {
			observed, err := i.contractEvents(tx, eventType)
			if err != nil {
				return nil, err
			}
			events = append(events, observed...)
		}
	}
	return events, nil
}

func eventQuery(eventType, contract string, window core.BlockRange) string {
	return fmt.Sprintf("tx.height >= %d AND tx.height <= %d AND %s.%s = '%s'",
		window.From, window.To, eventType, contractAddressAttr, contract)
}

// searchTxs fetches every page of a transaction search. The first page reveals the total
// count; the remaining pages are fetched concurrently.
func (i *Indexer) searchTxs(ctx context.Context, query string) ([]*coretypes.ResultTx, error) {
	first, err := i.searchPage(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	pages := (first.TotalCount + txSearchPerPage - 1) / txSearchPerPage
	if pages <= 1 {
		return first.Txs, nil
	}

	results := make([][]*coretypes.ResultTx, pages)
	results[0] = first.Txs

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)
	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			res, err := i.searchPage(gctx, query, page)
			if err != nil {
				return err
			}
			results[page-1] = res.Txs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	txs := make([]*coretypes.ResultTx, 0, first.TotalCount)
	for _, page := range results {
		txs = append(txs, page...)
	}
	return txs, nil
}

func (i *Indexer) searchPage(ctx context.Context, query string, page int) (*coretypes.ResultTxSearch, error) {
	perPage := txSearchPerPage
	res, err := i.searcher().TxSearch(ctx, query, false, &page, &perPage, "asc")
	if err != nil {
		return nil, core.CommunicationError(fmt.Sprintf("tx search page %d", page), err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: empty tx search response", core.ErrDecode)
	}
	return res, nil
}

// contractEvents extracts the events of eventType emitted by this contract. Failed
// transactions emit no contract events and are skipped.
func (i *Indexer) contractEvents(tx *coretypes.ResultTx, eventType string) ([]observedEvent, error) {
	if tx.TxResult.Code != abci.CodeTypeOK {
		return nil, nil
	}
	if tx.Height < 0 {
		return nil, fmt.Errorf("%w: negative tx height %d", core.ErrDecode, tx.Height)
	}

	var out []observedEvent
	for idx, ev := range tx.TxResult.Events {
		if ev.Type != eventType {
			continue
		}
		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}
		if attrs[contractAddressAttr] != i.bech32 {
			continue
		}
		eventIndex, err := core.NarrowUint32FromUint64(uint64(idx))
		if err != nil {
			return nil, err
		}
		out = append(out, observedEvent{
			height:     uint64(tx.Height),
			txIndex:    tx.Index,
			eventIndex: eventIndex,
			attrs:      attrs,
		})
	}
	return out, nil
}
