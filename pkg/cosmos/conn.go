package cosmos

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// Submitter signs, broadcasts and confirms transactions on behalf of the adapters.
// Implementations classify their own failures: transport errors wrap core.ErrChainCommunication
// and rejected transactions wrap core.ErrTxRejected.
type Submitter interface {
	// Sender is the bech32 address messages are sent from.
	Sender() string
	// Execute submits msgs atomically in one transaction and waits for its inclusion.
	// A nil gasLimit lets the submitter simulate one. A rejected transaction may be returned
	// alongside the error.
	Execute(ctx context.Context, msgs []*wasmtypes.MsgExecuteContract, gasLimit *uint64) (*sdk.TxResponse, error)
	// Simulate returns the gas msgs would consume.
	Simulate(ctx context.Context, msgs []*wasmtypes.MsgExecuteContract) (uint64, error)
}

// TxSearcher is the CometBFT RPC subset used for indexing. *rpchttp.HTTP satisfies it.
type TxSearcher interface {
	TxSearch(ctx context.Context, query string, prove bool, page, perPage *int, orderBy string) (*coretypes.ResultTxSearch, error)
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
}

var _ TxSearcher = &rpchttp.HTTP{}

// Conn is the per-chain state shared by every adapter of one Cosmos chain.
type Conn struct {
	// Prefix is the bech32 account prefix of the chain.
	Prefix string
	// GasPrice is quoted in cost estimates and outcomes, in the fee denom's smallest unit.
	GasPrice  math.LegacyDec
	Provider  WasmProvider
	Searcher  TxSearcher
	Submitter Submitter
}

// DialConf describes the endpoints of one Cosmos chain.
type DialConf struct {
	GRPCURL  string
	RPCURL   string
	Prefix   string
	GasPrice math.LegacyDec
	// Submitter takes precedence over Keyring.
	Submitter Submitter
	// Keyring and KeyName, when set, make Dial set up a Signer for the key paying fees
	// in FeeDenom.
	Keyring  keyring.Keyring
	KeyName  string
	FeeDenom string
}

// Dial opens the gRPC and CometBFT RPC clients of a chain. The returned handle closes the
// gRPC connection once every retained copy is closed. Setting up a Signer queries the
// signer's account.
func Dial(ctx context.Context, conf DialConf) (*core.Shared[*Conn], error) {
	enc, err := MakeEncodingConfig(conf.Prefix)
	if err != nil {
		return nil, err
	}
	grpcConn, err := grpc.NewClient(conf.GRPCURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(enc.Codec.GRPCCodec())),
	)
	if err != nil {
		return nil, core.CommunicationError("dial grpc", err)
	}
	rpc, err := rpchttp.New(conf.RPCURL, "/websocket")
	if err != nil {
		return nil, errors.Join(core.CommunicationError("dial rpc", err), grpcConn.Close())
	}

	submitter := conf.Submitter
	if submitter == nil && conf.Keyring != nil {
		signer, err := SetupSigner(ctx, conf.Keyring, conf.KeyName, grpcConn, enc, conf.Prefix, FeeConf{
			Denom:    conf.FeeDenom,
			GasPrice: conf.GasPrice,
		})
		if err != nil {
			return nil, errors.Join(err, grpcConn.Close())
		}
		submitter = signer
	}

	conn := &Conn{
		Prefix:    conf.Prefix,
		GasPrice:  conf.GasPrice,
		Provider:  NewGrpcProvider(grpcConn),
		Searcher:  rpc,
		Submitter: submitter,
	}
	return core.NewShared(conn, func(*Conn) error {
		return grpcConn.Close()
	}), nil
}

// Option configures a Cosmos adapter.
type Option func(*options)

type options struct {
	logger log.Logger
}

// WithLogger sets the adapter logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// contract is the identity shared by the Cosmos adapters.
type contract struct {
	conn    *core.Shared[*Conn]
	locator core.ContractLocator
	bech32  string
	logger  log.Logger
}

func newContract(conn *core.Shared[*Conn], locator core.ContractLocator, kind string, opts []Option) (contract, error) {
	o := options{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	addr, err := EncodeContractAddress(conn.Get().Prefix, locator.Address)
	if err != nil {
		return contract{}, err
	}
	return contract{
		conn:    conn,
		locator: locator,
		bech32:  addr,
		logger: o.logger.With(
			"module", "cosmos",
			"contract", kind,
			"name", locator.Name,
			"domain", locator.Domain,
		),
	}, nil
}

func (c *contract) LocalDomain() uint32 {
	return c.locator.Domain
}

func (c *contract) Name() string {
	return c.locator.Name
}

// Bech32 returns the contract address in the chain's native encoding.
func (c *contract) Bech32() string {
	return c.bech32
}

// Close releases this adapter's handle on the shared connection.
func (c *contract) Close() error {
	return c.conn.Close()
}

func (c *contract) provider() WasmProvider {
	return c.conn.Get().Provider
}

// lagHeight resolves the height a lagged read is pinned to. Height zero means "latest" to
// the query service, so the lagged height is clamped to the first block instead.
func (c *contract) lagHeight(ctx context.Context, lag *uint64) (*uint64, error) {
	if lag == nil {
		return nil, nil
	}
	tip, err := c.provider().LatestHeight(ctx)
	if err != nil {
		return nil, err
	}
	height := max(core.LagBlock(tip, *lag), 1)
	return &height, nil
}

// txOutcome normalizes a broadcast result.
func txOutcome(resp *sdk.TxResponse, gasPrice math.LegacyDec) (core.TxOutcome, error) {
	if resp == nil {
		return core.TxOutcome{}, fmt.Errorf("%w: empty tx response", core.ErrDecode)
	}
	txID, err := decodeHex32(resp.TxHash)
	if err != nil {
		return core.TxOutcome{}, fmt.Errorf("tx hash: %w", err)
	}
	if resp.GasUsed < 0 {
		return core.TxOutcome{}, fmt.Errorf("%w: negative gas used %d", core.ErrDecode, resp.GasUsed)
	}
	if gasPrice.IsNil() {
		gasPrice = math.LegacyZeroDec()
	}
	return core.TxOutcome{
		TransactionID: txID,
		Executed:      resp.Code == 0,
		GasUsed:       uint64(resp.GasUsed),
		GasPrice:      gasPrice,
	}, nil
}
