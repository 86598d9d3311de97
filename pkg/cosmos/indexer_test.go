package cosmos_test

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	abci "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
)

func newIndexer(t *testing.T, f *fixture, index core.IndexConf) *cosmos.Indexer {
	t.Helper()
	indexer, err := cosmos.NewIndexer(f.conn, testLocator("outbox"), index)
	require.NoError(t, err)
	return indexer
}

func checkpointEvent(contract string, root util.HexAddress, index uint32) abci.Event {
	return event("wasm-outbox_checkpoint_cached", contract,
		"root", hex.EncodeToString(root[:]),
		"index", fmt.Sprint(index),
	)
}

func dispatchEvent(contract string, leafIndex uint32, message []byte) abci.Event {
	return event("wasm-mailbox_dispatch", contract,
		"leaf_index", fmt.Sprint(leafIndex),
		"message", hex.EncodeToString(message),
	)
}

func TestIndexerGetBlockNumber(t *testing.T) {
	f := newFixture()
	f.searcher.tip = 777
	indexer := newIndexer(t, f, core.IndexConf{})

	height, err := indexer.GetBlockNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(777), height)
}

func TestIndexerCheckpointsTieBreakOnTransactionPosition(t *testing.T) {
	f := newFixture()
	contract := mustEncode(contractAddress())
	rootA, rootB := util.HexAddress{0: 0xa}, util.HexAddress{0: 0xb}
	f.searcher.txs = []*coretypes.ResultTx{
		resultTx(100, 2, checkpointEvent(contract, rootA, 8)),
		resultTx(100, 0, checkpointEvent(contract, rootB, 7)),
	}
	indexer := newIndexer(t, f, core.IndexConf{})

	checkpoints, err := indexer.FetchSortedCheckpoints(context.Background(), 90, 110)
	require.NoError(t, err)
	require.Equal(t, []core.CheckpointWithMeta{
		{Checkpoint: core.Checkpoint{OutboxDomain: 69420, Root: rootB, Index: 7}, BlockNumber: 100},
		{Checkpoint: core.Checkpoint{OutboxDomain: 69420, Root: rootA, Index: 8}, BlockNumber: 100},
	}, checkpoints)

	require.Len(t, f.searcher.queries, 1)
	require.Equal(t,
		fmt.Sprintf("tx.height >= 90 AND tx.height <= 110 AND wasm-outbox_checkpoint_cached._contract_address = '%s'", contract),
		f.searcher.queries[0])
}

func TestIndexerCheckpointsWithinOneTransaction(t *testing.T) {
	f := newFixture()
	contract := mustEncode(contractAddress())
	f.searcher.txs = []*coretypes.ResultTx{
		resultTx(12, 1,
			checkpointEvent(contract, util.HexAddress{0: 1}, 1),
			event("transfer", contract),
			checkpointEvent(contract, util.HexAddress{0: 2}, 2),
		),
		resultTx(11, 4, checkpointEvent(contract, util.HexAddress{0: 3}, 0)),
	}
	indexer := newIndexer(t, f, core.IndexConf{})

	checkpoints, err := indexer.FetchSortedCheckpoints(context.Background(), 0, 20)
	require.NoError(t, err)
	require.Len(t, checkpoints, 3)
	for i, cp := range checkpoints {
		require.Equal(t, uint32(i), cp.Checkpoint.Index)
	}
}

func TestIndexerMessagesSortedByLeafIndex(t *testing.T) {
	f := newFixture()
	contract := mustEncode(contractAddress())
	five, three := []byte("five"), []byte("three")
	f.searcher.txs = []*coretypes.ResultTx{
		resultTx(4, 0, dispatchEvent(contract, 5, five)),
		resultTx(5, 0, dispatchEvent(contract, 3, three)),
	}
	indexer := newIndexer(t, f, core.IndexConf{})

	messages, err := indexer.FetchSortedMessages(context.Background(), 3, 5)
	require.NoError(t, err)
	require.Equal(t, []core.RawCommittedMessage{
		{LeafIndex: 3, Message: three},
		{LeafIndex: 5, Message: five},
	}, messages)
}

func TestIndexerSkipsForeignAndFailedTxs(t *testing.T) {
	f := newFixture()
	contract := mustEncode(contractAddress())
	other := mustEncode(util.HexAddress{0: 0xff, 31: 0xff})

	failed := resultTx(3, 0, dispatchEvent(contract, 2, []byte("failed")))
	failed.TxResult.Code = 11
	f.searcher.txs = []*coretypes.ResultTx{
		resultTx(1, 0, dispatchEvent(contract, 0, []byte("ours"))),
		resultTx(2, 0, dispatchEvent(other, 1, []byte("theirs"))),
		failed,
	}
	indexer := newIndexer(t, f, core.IndexConf{})

	messages, err := indexer.FetchSortedMessages(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Equal(t, []core.RawCommittedMessage{{LeafIndex: 0, Message: []byte("ours")}}, messages)
}

func TestIndexerFetchesAllPages(t *testing.T) {
	f := newFixture()
	contract := mustEncode(contractAddress())
	for i := 0; i < 250; i++ {
		// dispatched in reverse leaf order to make the final sort observable
		leaf := uint32(249 - i)
		f.searcher.txs = append(f.searcher.txs, resultTx(int64(i+1), 0, dispatchEvent(contract, leaf, []byte{byte(leaf)})))
	}
	indexer := newIndexer(t, f, core.IndexConf{})

	messages, err := indexer.FetchSortedMessages(context.Background(), 1, 250)
	require.NoError(t, err)
	require.Len(t, messages, 250)
	for i, msg := range messages {
		require.Equal(t, uint32(i), msg.LeafIndex)
	}
	require.ElementsMatch(t, []int{1, 2, 3}, f.searcher.pages)
}

func TestIndexerChunksWindows(t *testing.T) {
	f := newFixture()
	indexer := newIndexer(t, f, core.IndexConf{Chunk: 50})

	_, err := indexer.FetchSortedMessages(context.Background(), 1, 120)
	require.NoError(t, err)
	require.Len(t, f.searcher.queries, 3)
	require.True(t, strings.HasPrefix(f.searcher.queries[0], "tx.height >= 1 AND tx.height <= 50 "))
	require.True(t, strings.HasPrefix(f.searcher.queries[1], "tx.height >= 51 AND tx.height <= 100 "))
	require.True(t, strings.HasPrefix(f.searcher.queries[2], "tx.height >= 101 AND tx.height <= 120 "))
}

func TestIndexerMalformedAttributes(t *testing.T) {
	contract := mustEncode(contractAddress())

	testCases := []struct {
		name string
		ev   abci.Event
	}{
		{name: "leaf index out of range", ev: event("wasm-mailbox_dispatch", contract, "leaf_index", "4294967296", "message", "00")},
		{name: "negative leaf index", ev: event("wasm-mailbox_dispatch", contract, "leaf_index", "-1", "message", "00")},
		{name: "message not hex", ev: event("wasm-mailbox_dispatch", contract, "leaf_index", "1", "message", "zz")},
		{name: "conflicting leaf", ev: dispatchEvent(contract, 0, []byte("other"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.searcher.txs = []*coretypes.ResultTx{
				resultTx(1, 0, dispatchEvent(contract, 0, []byte("ours"))),
				resultTx(2, 0, tc.ev),
			}
			indexer := newIndexer(t, f, core.IndexConf{})

			_, err := indexer.FetchSortedMessages(context.Background(), 0, 10)
			require.ErrorIs(t, err, core.ErrDecode)
			require.False(t, core.IsRetryable(err))
		})
	}
}

func TestIndexerTransportFailure(t *testing.T) {
	f := newFixture()
	f.searcher.err = errors.New("connection reset")
	indexer := newIndexer(t, f, core.IndexConf{})

	_, err := indexer.FetchSortedCheckpoints(context.Background(), 0, 10)
	require.ErrorIs(t, err, core.ErrChainCommunication)
	require.True(t, core.IsRetryable(err))
}
