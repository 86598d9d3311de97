package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// TransactOptsBuilder produces the signing options for one transaction. A zero gasLimit lets
// the contract binding estimate it.
type TransactOptsBuilder func(ctx context.Context, client Client, gasLimit uint64) (*bind.TransactOpts, error)

// NewKeyedTransactOptsBuilder signs with privKey using legacy pricing at the node's
// suggested gas price and the pending nonce of the key's address.
func NewKeyedTransactOptsBuilder(privKey *ecdsa.PrivateKey) TransactOptsBuilder {
	evmAddress := ethcrypto.PubkeyToAddress(privKey.PublicKey)
	return func(ctx context.Context, client Client, gasLimit uint64) (*bind.TransactOpts, error) {
		nonce, err := client.PendingNonceAt(ctx, evmAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to get pending nonce of %s: %w", evmAddress.Hex(), err)
		}

		chainID, err := client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get EVM chain ID: %w", err)
		}

		auth, err := bind.NewKeyedTransactorWithChainID(privKey, chainID)
		if err != nil {
			return nil, fmt.Errorf("failed to create EVM transactor: %w", err)
		}

		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get EVM gas price: %w", err)
		}

		auth.Context = ctx
		auth.Nonce = new(big.Int).SetUint64(nonce)
		auth.Value = big.NewInt(0) // in wei
		auth.GasLimit = gasLimit   // in units
		auth.GasPrice = gasPrice

		return auth, nil
	}
}

// ParsePrivateKey decodes a hex-encoded secp256k1 key, with or without a 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVM signer key: %w", err)
	}
	return key, nil
}
