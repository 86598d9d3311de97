package core

import (
	"encoding/binary"
	"fmt"

	"cosmossdk.io/math"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/crypto"
)

// ContractLocator identifies one deployed contract instance.
type ContractLocator struct {
	Domain  uint32
	Address util.HexAddress
	Name    string
}

func (l ContractLocator) String() string {
	return fmt.Sprintf("%s@%d:%s", l.Name, l.Domain, l.Address)
}

// RawCommittedMessage is a dispatched message together with its position in the
// outbox's append-only leaf sequence.
type RawCommittedMessage struct {
	LeafIndex uint32
	Message   []byte
}

// Parse decodes the committed message bytes.
func (m RawCommittedMessage) Parse() (Message, error) {
	return ParseMessage(m.Message)
}

// Checkpoint commits to the outbox's message tree root at a leaf count.
type Checkpoint struct {
	OutboxDomain uint32
	Root         util.HexAddress
	Index        uint32
}

// CheckpointWithMeta is a Checkpoint together with the height it was observed at.
type CheckpointWithMeta struct {
	Checkpoint  Checkpoint
	BlockNumber uint64
}

// TxOutcome is a chain-agnostic transaction result.
type TxOutcome struct {
	TransactionID util.HexAddress
	Executed      bool
	GasUsed       uint64
	// GasPrice is denominated in the chain's smallest fee unit.
	GasPrice math.LegacyDec
}

// TxCostEstimate is the result of simulating a transaction.
type TxCostEstimate struct {
	GasLimit uint64
	GasPrice math.LegacyDec
}

// BatchItem is one message submitted as part of a batch.
type BatchItem struct {
	Message  Message
	Metadata []byte
	GasLimit *uint64
}

// State is the outbox lifecycle flag.
type State uint8

const (
	StateWaiting State = iota
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// StateFromRaw maps the raw on-chain state value. Any value other than 0 or 1 panics with
// an InvariantViolation: the contract is not expected to produce one.
func StateFromRaw(contract string, raw uint8) State {
	switch raw {
	case 0:
		return StateWaiting
	case 1:
		return StateFailed
	default:
		panic(InvariantViolation{
			Contract: contract,
			Detail:   fmt.Sprintf("unrecognized outbox state value %d", raw),
		})
	}
}

// domainHashSuffix is appended to the domain and mailbox address when deriving the domain hash.
const domainHashSuffix = "HYPERLANE"

// DomainHash returns keccak256(domain | address | "HYPERLANE"), the value validators sign
// checkpoints over for a given mailbox.
func DomainHash(address util.HexAddress, domain uint32) util.HexAddress {
	var domainBytes [4]byte
	binary.BigEndian.PutUint32(domainBytes[:], domain)
	return util.HexAddress(crypto.Keccak256Hash(domainBytes[:], address[:], []byte(domainHashSuffix)))
}

// IndexConf bounds how an indexer scans history. From is the first height worth scanning;
// Chunk caps the number of blocks covered by a single event query, zero meaning no cap.
type IndexConf struct {
	From  uint32
	Chunk uint32
}
