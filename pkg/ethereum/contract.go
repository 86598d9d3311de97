package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// Option configures an EVM adapter.
type Option func(*options)

type options struct {
	logger       log.Logger
	transactOpts TransactOptsBuilder
}

// WithLogger sets the adapter logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransactOpts sets the signer used by state-changing operations. Without it they fail
// with core.ErrNoSubmitter.
func WithTransactOpts(builder TransactOptsBuilder) Option {
	return func(o *options) {
		o.transactOpts = builder
	}
}

func newOptions(opts []Option) options {
	o := options{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// contract binds one ABI to one deployed address over a shared client.
type contract struct {
	conn    *core.Shared[Client]
	locator core.ContractLocator
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	opts    options
	logger  log.Logger
}

func newContract(conn *core.Shared[Client], locator core.ContractLocator, parsed abi.ABI, kind string, opts []Option) contract {
	o := newOptions(opts)
	address := toAddress(locator.Address)
	client := conn.Get()
	return contract{
		conn:    conn,
		locator: locator,
		address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, client, client, client),
		opts:    o,
		logger: o.logger.With(
			"module", "ethereum",
			"contract", kind,
			"name", locator.Name,
			"domain", locator.Domain,
		),
	}
}

func (c *contract) client() Client {
	return c.conn.Get()
}

func (c *contract) LocalDomain() uint32 {
	return c.locator.Domain
}

func (c *contract) Name() string {
	return c.locator.Name
}

// Close releases this adapter's handle on the shared client.
func (c *contract) Close() error {
	return c.conn.Close()
}

// lagBlock resolves the block a lagged read is pinned to. A nil lag reads at the head.
func (c *contract) lagBlock(ctx context.Context, lag *uint64) (*big.Int, error) {
	if lag == nil {
		return nil, nil
	}
	tip, err := c.client().BlockNumber(ctx)
	if err != nil {
		return nil, core.CommunicationError("block number", err)
	}
	return new(big.Int).SetUint64(core.LagBlock(tip, *lag)), nil
}

// call performs an eth_call of method at block (nil for latest) and unpacks its outputs.
func (c *contract) call(ctx context.Context, block *big.Int, method string, args ...any) ([]any, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	output, err := c.client().CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: input}, block)
	if err != nil {
		return nil, core.CommunicationError(method, err)
	}
	values, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, core.DecodeError(method, err)
	}
	if len(values) != len(c.abi.Methods[method].Outputs) {
		return nil, core.DecodeError(method, fmt.Errorf("got %d outputs", len(values)))
	}
	return values, nil
}

// transact signs and submits method, then waits for the receipt.
func (c *contract) transact(ctx context.Context, gasLimit uint64, method string, args ...any) (core.TxOutcome, error) {
	if c.opts.transactOpts == nil {
		return core.TxOutcome{}, fmt.Errorf("%w: %s on %s", core.ErrNoSubmitter, method, c.locator)
	}
	auth, err := c.opts.transactOpts(ctx, c.client(), gasLimit)
	if err != nil {
		return core.TxOutcome{}, core.CommunicationError(method, err)
	}
	auth.Context = ctx

	tx, err := c.bound.Transact(auth, method, args...)
	if err != nil {
		return core.TxOutcome{}, core.CommunicationError(method, err)
	}
	c.logger.Info("submitted transaction", "method", method, "hash", tx.Hash().Hex(), "nonce", tx.Nonce())
	return reportTx(ctx, c.client(), tx)
}

// convert unpacks a single call output into T.
func convert[T any](method string, value any) (T, error) {
	out, ok := value.(T)
	if !ok {
		var zero T
		return zero, core.DecodeError(method, fmt.Errorf("unexpected output type %T, want %T", value, zero))
	}
	return out, nil
}
