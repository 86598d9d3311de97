package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const outboxABIJSON = `[
  {"type":"event","name":"Dispatch","anonymous":false,"inputs":[
    {"name":"leafIndex","type":"uint256","indexed":true},
    {"name":"message","type":"bytes","indexed":false}]},
  {"type":"event","name":"CheckpointCached","anonymous":false,"inputs":[
    {"name":"root","type":"bytes32","indexed":true},
    {"name":"index","type":"uint256","indexed":true}]},
  {"type":"function","name":"localDomain","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"uint32"}]},
  {"type":"function","name":"validatorManager","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"latestCachedRoot","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"latestCachedCheckpoint","stateMutability":"view","inputs":[],
    "outputs":[{"name":"root","type":"bytes32"},{"name":"index","type":"uint256"}]},
  {"type":"function","name":"count","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"state","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"dispatch","stateMutability":"nonpayable","inputs":[
    {"name":"destinationDomain","type":"uint32"},
    {"name":"recipientAddress","type":"bytes32"},
    {"name":"messageBody","type":"bytes"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"cacheCheckpoint","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

const mailboxABIJSON = `[
  {"type":"function","name":"localDomain","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"uint32"}]},
  {"type":"function","name":"delivered","stateMutability":"view","inputs":[{"name":"messageId","type":"bytes32"}],
    "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"defaultIsm","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"recipientIsm","stateMutability":"view","inputs":[{"name":"recipient","type":"address"}],
    "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"count","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"uint32"}]},
  {"type":"function","name":"process","stateMutability":"payable","inputs":[
    {"name":"metadata","type":"bytes"},
    {"name":"message","type":"bytes"}],"outputs":[]}
]`

const routingIsmABIJSON = `[
  {"type":"function","name":"route","stateMutability":"view","inputs":[{"name":"message","type":"bytes"}],
    "outputs":[{"name":"","type":"address"}]}
]`

var (
	outboxABI     = mustParseABI("Outbox", outboxABIJSON)
	mailboxABI    = mustParseABI("Mailbox", mailboxABIJSON)
	routingIsmABI = mustParseABI("RoutingIsm", routingIsmABIJSON)
)

// OutboxABI returns the parsed Outbox contract ABI.
func OutboxABI() abi.ABI { return outboxABI }

// MailboxABI returns the parsed Mailbox contract ABI.
func MailboxABI() abi.ABI { return mailboxABI }

// RoutingIsmABI returns the parsed RoutingIsm contract ABI.
func RoutingIsmABI() abi.ABI { return routingIsmABI }

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parsing %s ABI: %v", name, err))
	}
	return parsed
}

// dispatchEvent mirrors the Outbox Dispatch event for BoundContract.UnpackLog.
type dispatchEvent struct {
	LeafIndex *big.Int
	Message   []byte
}

// checkpointCachedEvent mirrors the Outbox CheckpointCached event.
type checkpointCachedEvent struct {
	Root  [32]byte
	Index *big.Int
}
