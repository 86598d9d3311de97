package ethereum

import (
	"context"
	"math/big"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// Client is the subset of an EVM JSON-RPC client used by the adapters. *ethclient.Client
// satisfies it.
type Client interface {
	bind.ContractBackend

	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

var _ Client = &ethclient.Client{}

// Dial connects to an EVM JSON-RPC endpoint. The returned handle closes the connection once
// every retained copy is closed.
func Dial(ctx context.Context, rawURL string) (*core.Shared[Client], error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, core.CommunicationError("dial", err)
	}
	return core.NewShared[Client](client, func(Client) error {
		client.Close()
		return nil
	}), nil
}

// toAddress takes the low 20 bytes of a 32-byte address.
func toAddress(addr util.HexAddress) common.Address {
	return common.BytesToAddress(addr[:])
}

// fromAddress left-pads an EVM address to 32 bytes.
func fromAddress(addr common.Address) util.HexAddress {
	return util.HexAddress(common.BytesToHash(addr.Bytes()))
}
