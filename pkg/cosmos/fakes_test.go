package cosmos_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cosmossdk.io/math"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	abci "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
)

const testPrefix = "celestia"

func contractAddress() util.HexAddress {
	var addr util.HexAddress
	for i := range addr {
		addr[i] = byte(i + 1)
	}
	return addr
}

func testLocator(name string) core.ContractLocator {
	return core.ContractLocator{Domain: 69420, Address: contractAddress(), Name: name}
}

func mustEncode(addr util.HexAddress) string {
	out, err := cosmos.EncodeAddress(testPrefix, addr)
	if err != nil {
		panic(err)
	}
	return out
}

func testMessage() core.Message {
	return core.Message{
		Origin:      69420,
		Sender:      contractAddress(),
		Destination: 1,
		Recipient:   util.HexAddress{31: 0x0b},
		Nonce:       9,
		Body:        []byte("ping"),
	}
}

type recordedQuery struct {
	contract string
	payload  string
	height   *uint64
}

// fakeProvider answers smart queries from a table keyed by the JSON request.
type fakeProvider struct {
	mu        sync.Mutex
	responses map[string]string
	queries   []recordedQuery
	err       error
	tip       uint64
	tipCalls  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{responses: map[string]string{}}
}

func (p *fakeProvider) WasmQuery(_ context.Context, contract string, payload any, height *uint64) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, core.CommunicationError("smart contract state", p.err)
	}
	data, err := jsonMarshal(payload)
	if err != nil {
		return nil, err
	}
	p.queries = append(p.queries, recordedQuery{contract: contract, payload: data, height: height})
	resp, ok := p.responses[data]
	if !ok {
		return nil, core.CommunicationError("smart contract state", fmt.Errorf("no response for %s", data))
	}
	return []byte(resp), nil
}

func (p *fakeProvider) LatestHeight(context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tipCalls++
	return p.tip, nil
}

type executeCall struct {
	msgs     []*wasmtypes.MsgExecuteContract
	gasLimit *uint64
}

// fakeSubmitter records executed messages and reports them as included.
type fakeSubmitter struct {
	sender   string
	calls    []executeCall
	code     uint32
	simGas   uint64
	execErr  error
	nextHash byte
}

func (s *fakeSubmitter) Sender() string { return s.sender }

func (s *fakeSubmitter) Execute(_ context.Context, msgs []*wasmtypes.MsgExecuteContract, gasLimit *uint64) (*sdk.TxResponse, error) {
	if s.execErr != nil {
		return nil, s.execErr
	}
	s.calls = append(s.calls, executeCall{msgs: msgs, gasLimit: gasLimit})
	s.nextHash++
	hash := make([]byte, 32)
	hash[31] = s.nextHash
	return &sdk.TxResponse{
		TxHash:  strings.ToUpper(hex.EncodeToString(hash)),
		Code:    s.code,
		GasUsed: 80_000,
	}, nil
}

func (s *fakeSubmitter) Simulate(context.Context, []*wasmtypes.MsgExecuteContract) (uint64, error) {
	return s.simGas, nil
}

// fakeSearcher serves TxSearch from a fixed transaction list, filtered by the height range
// of the query and paginated.
type fakeSearcher struct {
	mu      sync.Mutex
	txs     []*coretypes.ResultTx
	tip     int64
	queries []string
	pages   []int
	err     error
}

func (s *fakeSearcher) TxSearch(_ context.Context, query string, _ bool, page, perPage *int, _ string) (*coretypes.ResultTxSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.queries = append(s.queries, query)
	s.pages = append(s.pages, *page)

	var from, to int64
	if _, err := fmt.Sscanf(query, "tx.height >= %d AND tx.height <= %d", &from, &to); err != nil {
		return nil, err
	}
	var matched []*coretypes.ResultTx
	for _, tx := range s.txs {
		if tx.Height >= from && tx.Height <= to {
			matched = append(matched, tx)
		}
	}

	start := (*page - 1) * *perPage
	if start > len(matched) {
		return nil, errors.New("page out of range")
	}
	end := min(start+*perPage, len(matched))
	return &coretypes.ResultTxSearch{Txs: matched[start:end], TotalCount: len(matched)}, nil
}

func (s *fakeSearcher) Status(context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{SyncInfo: coretypes.SyncInfo{LatestBlockHeight: s.tip}}, nil
}

func event(eventType, contract string, attrs ...string) abci.Event {
	ev := abci.Event{Type: eventType}
	ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: "_contract_address", Value: contract})
	for i := 0; i+1 < len(attrs); i += 2 {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: attrs[i], Value: attrs[i+1]})
	}
	return ev
}

func resultTx(height int64, index uint32, events ...abci.Event) *coretypes.ResultTx {
	return &coretypes.ResultTx{
		Height:   height,
		Index:    index,
		TxResult: abci.ExecTxResult{Events: events},
	}
}

type fixture struct {
	provider  *fakeProvider
	searcher  *fakeSearcher
	submitter *fakeSubmitter
	conn      *core.Shared[*cosmos.Conn]
}

func newFixture() *fixture {
	f := &fixture{
		provider:  newFakeProvider(),
		searcher:  &fakeSearcher{},
		submitter: &fakeSubmitter{sender: mustEncode(util.HexAddress{31: 0x5e}), simGas: 95_000},
	}
	f.conn = core.NewShared(&cosmos.Conn{
		Prefix:    testPrefix,
		GasPrice:  math.LegacyMustNewDecFromStr("0.002"),
		Provider:  f.provider,
		Searcher:  f.searcher,
		Submitter: f.submitter,
	}, nil)
	return f
}

func jsonMarshal(v any) (string, error) {
	bz, err := json.Marshal(v)
	return string(bz), err
}
