package cosmos

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	grpctypes "github.com/cosmos/cosmos-sdk/types/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// WasmProvider issues read-only smart queries against CosmWasm contracts.
type WasmProvider interface {
	// WasmQuery JSON-encodes payload, queries contract at height (the latest state when
	// nil) and returns the raw JSON response.
	WasmQuery(ctx context.Context, contract string, payload any, height *uint64) ([]byte, error)
	LatestHeight(ctx context.Context) (uint64, error)
}

var _ WasmProvider = &GrpcProvider{}

// GrpcProvider implements WasmProvider over the wasm and CometBFT gRPC query services.
type GrpcProvider struct {
	wasm wasmtypes.QueryClient
	tm   cmtservice.ServiceClient
}

func NewGrpcProvider(conn grpc.ClientConnInterface) *GrpcProvider {
	return &GrpcProvider{
		wasm: wasmtypes.NewQueryClient(conn),
		tm:   cmtservice.NewServiceClient(conn),
	}
}

func (p *GrpcProvider) WasmQuery(ctx context.Context, contract string, payload any, height *uint64) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding query for %s: %w", contract, err)
	}
	if height != nil {
		ctx = metadata.AppendToOutgoingContext(ctx, grpctypes.GRPCBlockHeightHeader, strconv.FormatUint(*height, 10))
	}

	resp, err := p.wasm.SmartContractState(ctx, &wasmtypes.QuerySmartContractStateRequest{
		Address:   contract,
		QueryData: data,
	})
	if err != nil {
		return nil, core.CommunicationError("smart contract state", err)
	}
	return resp.Data, nil
}

func (p *GrpcProvider) LatestHeight(ctx context.Context) (uint64, error) {
	resp, err := p.tm.GetLatestBlock(ctx, &cmtservice.GetLatestBlockRequest{})
	if err != nil {
		return 0, core.CommunicationError("latest block", err)
	}
	if resp == nil || resp.SdkBlock == nil {
		return 0, fmt.Errorf("%w: latest block response was incomplete", core.ErrDecode)
	}
	height := resp.SdkBlock.Header.Height
	if height < 0 {
		return 0, fmt.Errorf("%w: negative block height %d", core.ErrDecode, height)
	}
	return uint64(height), nil
}

// query runs a smart query and decodes the JSON response into out.
func query[T any](ctx context.Context, provider WasmProvider, contract, op string, payload any, height *uint64) (T, error) {
	var out T
	data, err := provider.WasmQuery(ctx, contract, payload, height)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, core.DecodeError(op, err)
	}
	return out, nil
}
