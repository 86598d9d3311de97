package ethereum

import (
	"context"
	"errors"

	"cosmossdk.io/math"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// reportTx blocks until tx is mined or ctx is done and normalizes the receipt.
func reportTx(ctx context.Context, client Client, tx *types.Transaction) (core.TxOutcome, error) {
	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return core.TxOutcome{}, core.CommunicationError("wait mined", err)
	}
	return receiptOutcome(receipt), nil
}

// receiptOutcome maps an EVM receipt into a chain-agnostic outcome. The gas price is the
// effective price paid in wei.
func receiptOutcome(receipt *types.Receipt) core.TxOutcome {
	gasPrice := math.LegacyZeroDec()
	if receipt.EffectiveGasPrice != nil {
		gasPrice = math.LegacyNewDecFromBigInt(receipt.EffectiveGasPrice)
	}
	return core.TxOutcome{
		TransactionID: util.HexAddress(receipt.TxHash),
		Executed:      receipt.Status == types.ReceiptStatusSuccessful,
		GasUsed:       receipt.GasUsed,
		GasPrice:      gasPrice,
	}
}

// status looks up a receipt, returning nil for unknown or pending transactions.
func status(ctx context.Context, client Client, txID util.HexAddress) (*core.TxOutcome, error) {
	receipt, err := client.TransactionReceipt(ctx, common.Hash(txID))
	switch {
	case errors.Is(err, ethereum.NotFound):
		return nil, nil
	case err != nil:
		return nil, core.CommunicationError("transaction receipt", err)
	case receipt == nil:
		return nil, nil
	}
	outcome := receiptOutcome(receipt)
	return &outcome, nil
}
