package core

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/log"
)

// NoBatching supplies the default ProcessBatch for Mailbox implementations that cannot
// submit several messages in one transaction. Embed it in the adapter struct.
type NoBatching struct{}

// ProcessBatch always returns ErrBatchingFailed and never contacts the chain.
func (NoBatching) ProcessBatch(context.Context, []BatchItem) (TxOutcome, error) {
	return TxOutcome{}, ErrBatchingFailed
}

// ProcessMessages delivers items through mailbox. It tries a single atomic batch first and,
// when the adapter signals ErrBatchingFailed, falls back to one Process call per item.
// The returned outcomes hold one entry for a batch or one entry per item otherwise.
// Sequential processing stops at the first failure and returns the outcomes so far.
func ProcessMessages(ctx context.Context, logger log.Logger, mailbox Mailbox, items []BatchItem) ([]TxOutcome, error) {
	if len(items) == 0 {
		return nil, nil
	}

	outcome, err := mailbox.ProcessBatch(ctx, items)
	switch {
	case err == nil:
		return []TxOutcome{outcome}, nil
	case !errors.Is(err, ErrBatchingFailed):
		return nil, err
	}

	logger.Debug("batching unsupported, processing sequentially", "mailbox", mailbox.Name(), "items", len(items))
	outcomes := make([]TxOutcome, 0, len(items))
	for i, item := range items {
		outcome, err := mailbox.Process(ctx, item.Message, item.Metadata, item.GasLimit)
		if err != nil {
			return outcomes, fmt.Errorf("processing item %d (message %s): %w", i, item.Message.ID(), err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
