package ethereum_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/ethereum"
)

var contractAddress = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func testLocator(name string) core.ContractLocator {
	return core.ContractLocator{
		Domain:  1000,
		Address: util.HexAddress(common.BytesToHash(contractAddress.Bytes())),
		Name:    name,
	}
}

// fakeBackend serves eth_call from canned method outputs and records every request.
// Methods of bind.ContractBackend it does not override panic.
type fakeBackend struct {
	bind.ContractBackend

	mu  sync.Mutex
	abi abi.ABI

	results    map[string][]any
	callErr    error
	callBlocks map[string][]*big.Int
	callArgs   map[string][]any

	tip              uint64
	blockNumberCalls int

	logs          []types.Log
	filterQueries []geth.FilterQuery

	receipts map[common.Hash]*types.Receipt
	sent     []*types.Transaction

	estimatedGas uint64
	gasPrice     *big.Int
}

var _ ethereum.Client = &fakeBackend{}

func newFakeBackend(parsed abi.ABI) *fakeBackend {
	return &fakeBackend{
		abi:          parsed,
		results:      map[string][]any{},
		callBlocks:   map[string][]*big.Int{},
		callArgs:     map[string][]any{},
		receipts:     map[common.Hash]*types.Receipt{},
		estimatedGas: 120_000,
		gasPrice:     big.NewInt(7),
	}
}

func (f *fakeBackend) shared() *core.Shared[ethereum.Client] {
	return core.NewShared[ethereum.Client](f, nil)
}

func (f *fakeBackend) CallContract(_ context.Context, call geth.CallMsg, block *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.callErr != nil {
		return nil, f.callErr
	}
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	f.callBlocks[method.Name] = append(f.callBlocks[method.Name], block)
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	f.callArgs[method.Name] = args

	out, ok := f.results[method.Name]
	if !ok {
		return nil, fmt.Errorf("unexpected call to %s", method.Name)
	}
	return method.Outputs.Pack(out...)
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockNumberCalls++
	return f.tip, nil
}

func (f *fakeBackend) FilterLogs(_ context.Context, query geth.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filterQueries = append(f.filterQueries, query)

	var out []types.Log
	for _, lg := range f.logs {
		if lg.Topics[0] != query.Topics[0][0] {
			continue
		}
		if lg.BlockNumber < query.FromBlock.Uint64() || lg.BlockNumber > query.ToBlock.Uint64() {
			continue
		}
		out = append(out, lg)
	}
	return out, nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	receipt, ok := f.receipts[hash]
	if !ok {
		return nil, geth.NotFound
	}
	return receipt, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.receipts[tx.Hash()] = &types.Receipt{
		TxHash:            tx.Hash(),
		Status:            types.ReceiptStatusSuccessful,
		GasUsed:           50_000,
		EffectiveGasPrice: tx.GasPrice(),
	}
	return nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 3, nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(1337), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeBackend) EstimateGas(context.Context, geth.CallMsg) (uint64, error) {
	return f.estimatedGas, nil
}

func testMessage() core.Message {
	return core.Message{
		Origin:      1000,
		Sender:      util.HexAddress(common.HexToHash("0x01")),
		Destination: 2000,
		Recipient:   util.HexAddress(common.BytesToHash(common.HexToAddress("0x00000000000000000000000000000000000000bb").Bytes())),
		Nonce:       4,
		Body:        []byte("hello"),
	}
}
