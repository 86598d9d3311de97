package cosmos

import (
	"context"
	"encoding/json"
	"fmt"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/bcp-innovations/hyperlane-cosmos/util"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

var _ core.Mailbox = &Mailbox{}

// Mailbox is a reference to a Mailbox contract on a Cosmos chain. Several process calls fit
// in one Cosmos transaction, so ProcessBatch submits the whole batch atomically.
type Mailbox struct {
	contract
}

// NewMailbox binds the Mailbox at locator. The adapter takes ownership of conn.
func NewMailbox(conn *core.Shared[*Conn], locator core.ContractLocator, opts ...Option) (*Mailbox, error) {
	c, err := newContract(conn, locator, "mailbox", opts)
	if err != nil {
		return nil, err
	}
	return &Mailbox{contract: c}, nil
}

func (m *Mailbox) Address() util.HexAddress {
	return m.locator.Address
}

func (m *Mailbox) Count(ctx context.Context, lag *uint64) (uint32, error) {
	height, err := m.lagHeight(ctx, lag)
	if err != nil {
		return 0, err
	}
	payload := mailboxQuery{Mailbox: mailboxQueryInner{Count: &struct{}{}}}
	resp, err := query[countResponse](ctx, m.provider(), m.bech32, "count", payload, height)
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (m *Mailbox) Delivered(ctx context.Context, id util.HexAddress) (bool, error) {
	payload := mailboxQuery{Mailbox: mailboxQueryInner{
		Delivered: &deliveredRequest{ID: encodeHex(id[:])},
	}}
	resp, err := query[deliveredResponse](ctx, m.provider(), m.bech32, "delivered", payload, nil)
	if err != nil {
		return false, err
	}
	return resp.Delivered, nil
}

func (m *Mailbox) DefaultIsm(ctx context.Context) (util.HexAddress, error) {
	payload := mailboxQuery{Mailbox: mailboxQueryInner{DefaultIsm: &struct{}{}}}
	resp, err := query[defaultIsmResponse](ctx, m.provider(), m.bech32, "default_ism", payload, nil)
	if err != nil {
		return util.HexAddress{}, err
	}
	return DecodeAddress(resp.DefaultIsm)
}

func (m *Mailbox) RecipientIsm(ctx context.Context, recipient util.HexAddress) (util.HexAddress, error) {
	recipientAddr, err := EncodeAddress(m.conn.Get().Prefix, recipient)
	if err != nil {
		return util.HexAddress{}, err
	}
	payload := mailboxQuery{Mailbox: mailboxQueryInner{
		RecipientIsm: &recipientIsmRequest{RecipientAddr: recipientAddr},
	}}
	resp, err := query[recipientIsmResponse](ctx, m.provider(), m.bech32, "recipient_ism", payload, nil)
	if err != nil {
		return util.HexAddress{}, err
	}
	return DecodeAddress(resp.Ism)
}

func (m *Mailbox) Process(ctx context.Context, message core.Message, metadata []byte, gasLimit *uint64) (core.TxOutcome, error) {
	return m.execute(ctx, "process", []core.BatchItem{{Message: message, Metadata: metadata}}, gasLimit)
}

// ProcessBatch processes every item in a single transaction. The batch gas limit is the sum
// of the item limits when all of them are set and is simulated otherwise.
func (m *Mailbox) ProcessBatch(ctx context.Context, items []core.BatchItem) (core.TxOutcome, error) {
	if len(items) == 0 {
		return core.TxOutcome{}, fmt.Errorf("%w: empty batch", core.ErrBatchingFailed)
	}

	var total uint64
	gasLimit := &total
	for _, item := range items {
		if item.GasLimit == nil {
			gasLimit = nil
			break
		}
		total += *item.GasLimit
	}
	return m.execute(ctx, "process_batch", items, gasLimit)
}

func (m *Mailbox) ProcessEstimateCosts(ctx context.Context, message core.Message, metadata []byte) (core.TxCostEstimate, error) {
	submitter := m.conn.Get().Submitter
	if submitter == nil {
		return core.TxCostEstimate{}, fmt.Errorf("%w: simulating process on %s", core.ErrNoSubmitter, m.locator)
	}
	gasUsed, err := submitter.Simulate(ctx, []*wasmtypes.MsgExecuteContract{m.executeMsg(submitter.Sender(), message, metadata)})
	if err != nil {
		return core.TxCostEstimate{}, fmt.Errorf("simulate process: %w", err)
	}
	return core.TxCostEstimate{
		GasLimit: gasUsed,
		GasPrice: m.conn.Get().GasPrice,
	}, nil
}

// ProcessCalldata returns the JSON execute message of a process call.
func (m *Mailbox) ProcessCalldata(message core.Message, metadata []byte) []byte {
	data, err := json.Marshal(processExecute{
		Process: processExecuteInner{
			Metadata: encodeHex(metadata),
			Message:  encodeHex(message.Bytes()),
		},
	})
	if err != nil {
		panic(fmt.Errorf("encoding process message: %w", err))
	}
	return data
}

func (m *Mailbox) executeMsg(sender string, message core.Message, metadata []byte) *wasmtypes.MsgExecuteContract {
	return &wasmtypes.MsgExecuteContract{
		Sender:   sender,
		Contract: m.bech32,
		Msg:      m.ProcessCalldata(message, metadata),
	}
}

func (m *Mailbox) execute(ctx context.Context, op string, items []core.BatchItem, gasLimit *uint64) (core.TxOutcome, error) {
	conn := m.conn.Get()
	if conn.Submitter == nil {
		return core.TxOutcome{}, fmt.Errorf("%w: %s on %s", core.ErrNoSubmitter, op, m.locator)
	}

	msgs := make([]*wasmtypes.MsgExecuteContract, 0, len(items))
	for _, item := range items {
		msgs = append(msgs, m.executeMsg(conn.Submitter.Sender(), item.Message, item.Metadata))
	}

	resp, err := conn.Submitter.Execute(ctx, msgs, gasLimit)
	if err != nil {
		if resp == nil {
			return core.TxOutcome{}, fmt.Errorf("%s: %w", op, err)
		}
		// A rejected transaction still identifies the attempt.
		outcome, decodeErr := txOutcome(resp, conn.GasPrice)
		if decodeErr != nil {
			return core.TxOutcome{}, fmt.Errorf("%s: %w", op, err)
		}
		m.logger.Error("transaction rejected", "op", op, "hash", resp.TxHash, "code", resp.Code, "err", err)
		outcome.Executed = false
		return outcome, fmt.Errorf("%s: %w", op, err)
	}
	outcome, err := txOutcome(resp, conn.GasPrice)
	if err != nil {
		return core.TxOutcome{}, err
	}
	m.logger.Info("submitted transaction", "op", op, "messages", len(msgs), "hash", resp.TxHash, "executed", outcome.Executed)
	return outcome, nil
}
