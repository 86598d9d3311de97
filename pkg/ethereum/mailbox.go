package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"cosmossdk.io/math"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

var _ core.Mailbox = &Mailbox{}

// Mailbox is a reference to a Mailbox contract on an EVM chain. EVM mailboxes process one
// message per transaction, so ProcessBatch always reports core.ErrBatchingFailed.
type Mailbox struct {
	core.NoBatching
	contract
}

// NewMailbox binds the Mailbox at locator. The adapter takes ownership of conn.
func NewMailbox(conn *core.Shared[Client], locator core.ContractLocator, opts ...Option) *Mailbox {
	return &Mailbox{contract: newContract(conn, locator, mailboxABI, "mailbox", opts)}
}

func (m *Mailbox) Address() util.HexAddress {
	return m.locator.Address
}

func (m *Mailbox) Count(ctx context.Context, lag *uint64) (uint32, error) {
	block, err := m.lagBlock(ctx, lag)
	if err != nil {
		return 0, err
	}
	out, err := m.call(ctx, block, "count")
	if err != nil {
		return 0, err
	}
	return convert[uint32]("count", out[0])
}

func (m *Mailbox) Delivered(ctx context.Context, id util.HexAddress) (bool, error) {
	out, err := m.call(ctx, nil, "delivered", [32]byte(id))
	if err != nil {
		return false, err
	}
	return convert[bool]("delivered", out[0])
}

func (m *Mailbox) DefaultIsm(ctx context.Context) (util.HexAddress, error) {
	out, err := m.call(ctx, nil, "defaultIsm")
	if err != nil {
		return util.HexAddress{}, err
	}
	ism, err := convert[common.Address]("defaultIsm", out[0])
	if err != nil {
		return util.HexAddress{}, err
	}
	return fromAddress(ism), nil
}

func (m *Mailbox) RecipientIsm(ctx context.Context, recipient util.HexAddress) (util.HexAddress, error) {
	out, err := m.call(ctx, nil, "recipientIsm", toAddress(recipient))
	if err != nil {
		return util.HexAddress{}, err
	}
	ism, err := convert[common.Address]("recipientIsm", out[0])
	if err != nil {
		return util.HexAddress{}, err
	}
	return fromAddress(ism), nil
}

// Process delivers message with its ISM metadata. A nil gasLimit lets the node estimate it.
func (m *Mailbox) Process(ctx context.Context, message core.Message, metadata []byte, gasLimit *uint64) (core.TxOutcome, error) {
	var limit uint64
	if gasLimit != nil {
		limit = *gasLimit
	}
	return m.transact(ctx, limit, "process", metadata, message.Bytes())
}

func (m *Mailbox) ProcessEstimateCosts(ctx context.Context, message core.Message, metadata []byte) (core.TxCostEstimate, error) {
	msg := ethereum.CallMsg{
		To:   &m.address,
		Data: m.ProcessCalldata(message, metadata),
	}
	gasLimit, err := m.client().EstimateGas(ctx, msg)
	if err != nil {
		return core.TxCostEstimate{}, core.CommunicationError("estimate gas", err)
	}
	gasPrice, err := m.client().SuggestGasPrice(ctx)
	if err != nil {
		return core.TxCostEstimate{}, core.CommunicationError("suggest gas price", err)
	}
	return core.TxCostEstimate{
		GasLimit: gasLimit,
		GasPrice: math.LegacyNewDecFromBigInt(nonNil(gasPrice)),
	}, nil
}

// ProcessCalldata returns the ABI-encoded process call.
func (m *Mailbox) ProcessCalldata(message core.Message, metadata []byte) []byte {
	data, err := m.abi.Pack("process", metadata, message.Bytes())
	if err != nil {
		// both arguments are dynamic bytes, packing cannot fail for a valid ABI
		panic(fmt.Errorf("packing process calldata: %w", err))
	}
	return data
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
