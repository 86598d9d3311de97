package cosmos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/math"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	authsigning "github.com/cosmos/cosmos-sdk/x/auth/signing"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

const (
	DefaultPollTime = 3 * time.Second
	// gasMultiplier pads simulated gas before it is used as the limit.
	gasMultiplier = "1.1"
)

var _ Submitter = &Signer{}

// BroadcastTxError is returned when the node rejects a transaction at broadcast. It matches
// core.ErrTxRejected.
type BroadcastTxError struct {
	TxHash string
	Code   uint32
	// ErrorLog is the raw log of the rejecting node.
	ErrorLog string
}

func (e *BroadcastTxError) Error() string {
	return fmt.Sprintf("broadcast tx %s rejected with code %d: %s", e.TxHash, e.Code, e.ErrorLog)
}

func (e *BroadcastTxError) Unwrap() error {
	return core.ErrTxRejected
}

// Account identifies the on-chain account a Signer signs for.
type Account struct {
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
}

// FeeConf prices transactions: the fee is ceil(GasPrice * gas limit) in Denom.
type FeeConf struct {
	Denom    string
	GasPrice math.LegacyDec
}

// Signer builds, signs, broadcasts and confirms wasm execution transactions with a key
// from a keyring. It is the Submitter used by the cosmos adapters.
type Signer struct {
	keys     keyring.Keyring
	address  sdk.AccAddress
	sender   string
	pk       cryptotypes.PubKey
	enc      client.TxConfig
	grpc     grpc.ClientConnInterface
	chainID  string
	accNum   uint64
	fee      FeeConf
	pollTime time.Duration

	mtx                sync.Mutex
	lastSignedSequence uint64
}

// NewSigner returns a signer for the key keyName. prefix is the chain's bech32 account
// prefix. No network calls are made.
func NewSigner(
	keys keyring.Keyring,
	keyName string,
	conn grpc.ClientConnInterface,
	enc client.TxConfig,
	prefix string,
	account Account,
	fee FeeConf,
) (*Signer, error) {
	record, err := keys.Key(keyName)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %w", core.ErrInvalidConfig, keyName, err)
	}
	pk, err := record.GetPubKey()
	if err != nil {
		return nil, err
	}
	address := sdk.AccAddress(pk.Address())
	sender, err := bech32.ConvertAndEncode(prefix, address)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding signer address: %w", core.ErrInvalidConfig, err)
	}
	if err := sdk.ValidateDenom(fee.Denom); err != nil {
		return nil, fmt.Errorf("%w: fee denom: %w", core.ErrInvalidConfig, err)
	}
	if fee.GasPrice.IsNil() {
		fee.GasPrice = math.LegacyZeroDec()
	}

	return &Signer{
		keys:               keys,
		address:            address,
		sender:             sender,
		pk:                 pk,
		enc:                enc,
		grpc:               conn,
		chainID:            account.ChainID,
		accNum:             account.AccountNumber,
		fee:                fee,
		pollTime:           DefaultPollTime,
		lastSignedSequence: account.Sequence,
	}, nil
}

// SetupSigner uses conn to populate the chain ID, account number and sequence of the key's
// account before calling NewSigner.
func SetupSigner(
	ctx context.Context,
	keys keyring.Keyring,
	keyName string,
	conn grpc.ClientConnInterface,
	enc EncodingConfig,
	prefix string,
	fee FeeConf,
) (*Signer, error) {
	record, err := keys.Key(keyName)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %w", core.ErrInvalidConfig, keyName, err)
	}
	addr, err := record.GetAddress()
	if err != nil {
		return nil, err
	}
	bech, err := bech32.ConvertAndEncode(prefix, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding signer address: %w", core.ErrInvalidConfig, err)
	}

	block, err := cmtservice.NewServiceClient(conn).GetLatestBlock(ctx, &cmtservice.GetLatestBlockRequest{})
	if err != nil {
		return nil, core.CommunicationError("latest block", err)
	}
	if block == nil || block.SdkBlock == nil {
		return nil, fmt.Errorf("%w: latest block response was incomplete", core.ErrDecode)
	}
	accNum, seq, err := QueryAccount(ctx, conn, enc, bech)
	if err != nil {
		return nil, err
	}

	account := Account{ChainID: block.SdkBlock.Header.ChainID, AccountNumber: accNum, Sequence: seq}
	return NewSigner(keys, keyName, conn, enc.TxConfig, prefix, account, fee)
}

// QueryAccount fetches the account number and sequence of address.
func QueryAccount(ctx context.Context, conn grpc.ClientConnInterface, enc EncodingConfig, address string) (accNum, seqNum uint64, err error) {
	resp, err := authtypes.NewQueryClient(conn).Account(ctx, &authtypes.QueryAccountRequest{Address: address})
	if err != nil {
		return 0, 0, core.CommunicationError("account "+address, err)
	}

	var acc sdk.AccountI
	if err := enc.InterfaceRegistry.UnpackAny(resp.Account, &acc); err != nil {
		return 0, 0, core.DecodeError("account "+address, err)
	}
	return acc.GetAccountNumber(), acc.GetSequence(), nil
}

func (s *Signer) Sender() string {
	return s.sender
}

// Execute signs msgs into one transaction, broadcasts it and waits for its inclusion. A
// transaction included with a non-zero code is returned without error; the caller decides
// what a failed execution means. A transaction rejected at broadcast returns the response
// together with a *BroadcastTxError. A nil gasLimit is replaced by padded simulated gas.
func (s *Signer) Execute(ctx context.Context, msgs []*wasmtypes.MsgExecuteContract, gasLimit *uint64) (*sdk.TxResponse, error) {
	var limit uint64
	if gasLimit != nil {
		limit = *gasLimit
	} else {
		gas, err := s.Simulate(ctx, msgs)
		if err != nil {
			return nil, err
		}
		limit = padGas(gas)
	}

	s.mtx.Lock()
	sequence := s.lastSignedSequence
	txBytes, err := s.createTx(ctx, msgs, limit, sequence)
	if err != nil {
		s.mtx.Unlock()
		return nil, err
	}
	resp, err := s.broadcastTx(ctx, txBytes)
	if err == nil && resp.Code == 0 {
		s.lastSignedSequence++
	}
	s.mtx.Unlock()

	if err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return resp, &BroadcastTxError{TxHash: resp.TxHash, Code: resp.Code, ErrorLog: resp.RawLog}
	}
	return s.ConfirmTx(ctx, resp.TxHash)
}

// Simulate returns the gas msgs would consume when signed at the current sequence.
func (s *Signer) Simulate(ctx context.Context, msgs []*wasmtypes.MsgExecuteContract) (uint64, error) {
	txBytes, err := s.createTx(ctx, msgs, 0, s.Sequence())
	if err != nil {
		return 0, err
	}
	resp, err := tx.NewServiceClient(s.grpc).Simulate(ctx, &tx.SimulateRequest{TxBytes: txBytes})
	if err != nil {
		return 0, core.CommunicationError("simulate", err)
	}
	if resp.GasInfo == nil {
		return 0, core.DecodeError("simulate", errors.New("missing gas info"))
	}
	return resp.GasInfo.GasUsed, nil
}

// ConfirmTx polls for the inclusion of txHash until it is found, the context is
// cancelled or a lookup fails for a reason other than the transaction being unknown.
func (s *Signer) ConfirmTx(ctx context.Context, txHash string) (*sdk.TxResponse, error) {
	txClient := tx.NewServiceClient(s.grpc)

	pollTicker := time.NewTicker(s.pollTime)
	defer pollTicker.Stop()

	for {
		resp, err := txClient.GetTx(ctx, &tx.GetTxRequest{Hash: txHash})
		if err == nil {
			return resp.TxResponse, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isNotFound(err) {
			return nil, core.CommunicationError("get tx "+txHash, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-pollTicker.C:
		}
	}
}

// SetPollTime sets how often ConfirmTx polls for a transaction.
func (s *Signer) SetPollTime(pollTime time.Duration) {
	s.pollTime = pollTime
}

// Sequence returns the sequence the next transaction will be signed with.
func (s *Signer) Sequence() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.lastSignedSequence
}

func (s *Signer) createTx(ctx context.Context, msgs []*wasmtypes.MsgExecuteContract, gasLimit, sequence uint64) ([]byte, error) {
	sdkMsgs := make([]sdk.Msg, 0, len(msgs))
	for _, msg := range msgs {
		sdkMsgs = append(sdkMsgs, msg)
	}

	builder := s.enc.NewTxBuilder()
	if err := builder.SetMsgs(sdkMsgs...); err != nil {
		return nil, err
	}
	builder.SetGasLimit(gasLimit)
	fee := s.fee.GasPrice.MulInt64(int64(gasLimit)).Ceil().TruncateInt()
	builder.SetFeeAmount(sdk.NewCoins(sdk.NewCoin(s.fee.Denom, fee)))

	if err := s.signTransaction(ctx, builder, sequence); err != nil {
		return nil, err
	}
	return s.enc.TxEncoder()(builder.GetTx())
}

func (s *Signer) broadcastTx(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	resp, err := tx.NewServiceClient(s.grpc).BroadcastTx(ctx, &tx.BroadcastTxRequest{
		Mode:    tx.BroadcastMode_BROADCAST_MODE_SYNC,
		TxBytes: txBytes,
	})
	if err != nil {
		return nil, core.CommunicationError("broadcast", err)
	}
	return resp.TxResponse, nil
}

func (s *Signer) signTransaction(ctx context.Context, builder client.TxBuilder, sequence uint64) error {
	signers, err := builder.GetTx().GetSigners()
	if err != nil {
		return fmt.Errorf("resolving signers: %w", err)
	}
	if len(signers) != 1 {
		return fmt.Errorf("expected 1 signer, got %d", len(signers))
	}
	if !bytes.Equal(signers[0], s.address) {
		return fmt.Errorf("expected signer %s, got %X", s.sender, signers[0])
	}

	// The sign bytes cover the signer infos, so they are set before signing.
	if err := builder.SetSignatures(s.signatureV2(sequence, nil)); err != nil {
		return fmt.Errorf("error setting draft signatures: %w", err)
	}

	signerData := authsigning.SignerData{
		Address:       s.sender,
		ChainID:       s.chainID,
		AccountNumber: s.accNum,
		Sequence:      sequence,
		PubKey:        s.pk,
	}
	bytesToSign, err := authsigning.GetSignBytesAdapter(ctx, s.enc.SignModeHandler(), signing.SignMode_SIGN_MODE_DIRECT, signerData, builder.GetTx())
	if err != nil {
		return fmt.Errorf("error getting sign bytes: %w", err)
	}
	signature, _, err := s.keys.SignByAddress(s.address, bytesToSign, signing.SignMode_SIGN_MODE_DIRECT)
	if err != nil {
		return fmt.Errorf("error signing bytes: %w", err)
	}

	if err := builder.SetSignatures(s.signatureV2(sequence, signature)); err != nil {
		return fmt.Errorf("error setting signatures: %w", err)
	}
	return nil
}

func (s *Signer) signatureV2(sequence uint64, signature []byte) signing.SignatureV2 {
	return signing.SignatureV2{
		PubKey: s.pk,
		Data: &signing.SingleSignatureData{
			SignMode:  signing.SignMode_SIGN_MODE_DIRECT,
			Signature: signature,
		},
		Sequence: sequence,
	}
}

func padGas(gas uint64) uint64 {
	return math.LegacyMustNewDecFromStr(gasMultiplier).MulInt64(int64(gas)).Ceil().TruncateInt().Uint64()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound || strings.Contains(err.Error(), "not found")
}
