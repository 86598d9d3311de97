package core

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
)

// CheckpointEvent is a checkpoint-cache event as observed on chain, before ordering.
type CheckpointEvent struct {
	Root  util.HexAddress
	Index uint32

	BlockNumber uint64
	// TxIndex is the position of the emitting transaction within its block.
	TxIndex uint32
	// LogIndex is the position of the event within its block. Adapters that cannot observe
	// it leave it zero and rely on the stable sort to keep retrieval order.
	LogIndex uint32
}

// DispatchEvent is a dispatch event as observed on chain, before ordering.
type DispatchEvent struct {
	LeafIndex uint32
	Message   []byte
}

// SortCheckpointEvents orders events ascending by block number, then transaction position,
// then log position. The sort is stable.
func SortCheckpointEvents(events []CheckpointEvent) {
	slices.SortStableFunc(events, func(a, b CheckpointEvent) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TxIndex, b.TxIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.LogIndex, b.LogIndex)
	})
}

// SortedCheckpoints orders events and maps them into canonical checkpoints of outboxDomain.
// The input slice is reordered in place.
func SortedCheckpoints(outboxDomain uint32, events []CheckpointEvent) []CheckpointWithMeta {
	SortCheckpointEvents(events)

	out := make([]CheckpointWithMeta, 0, len(events))
	for _, ev := range events {
		out = append(out, CheckpointWithMeta{
			Checkpoint: Checkpoint{
				OutboxDomain: outboxDomain,
				Root:         ev.Root,
				Index:        ev.Index,
			},
			BlockNumber: ev.BlockNumber,
		})
	}
	return out
}

// SortedMessages orders dispatch events by leaf index and maps them into committed
// messages. The result has strictly increasing leaf indexes: a repeated event (same leaf
// and bytes, e.g. from overlapping query windows) is kept once, and two different
// messages claiming one leaf index are a decode error.
func SortedMessages(events []DispatchEvent) ([]RawCommittedMessage, error) {
	slices.SortStableFunc(events, func(a, b DispatchEvent) int {
		return cmp.Compare(a.LeafIndex, b.LeafIndex)
	})

	out := make([]RawCommittedMessage, 0, len(events))
	for i, ev := range events {
		if i > 0 && events[i-1].LeafIndex == ev.LeafIndex {
			if !bytes.Equal(events[i-1].Message, ev.Message) {
				return nil, fmt.Errorf("%w: conflicting messages at leaf index %d", ErrDecode, ev.LeafIndex)
			}
			continue
		}
		out = append(out, RawCommittedMessage{
			LeafIndex: ev.LeafIndex,
			Message:   ev.Message,
		})
	}
	return out, nil
}
