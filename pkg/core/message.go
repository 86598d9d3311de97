package core

import (
	"encoding/binary"
	"fmt"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	domainLength  = 4
	addressLength = 32
	nonceLength   = 4

	originOffset      = 0
	senderOffset      = originOffset + domainLength
	destinationOffset = senderOffset + addressLength
	recipientOffset   = destinationOffset + domainLength
	nonceOffset       = recipientOffset + addressLength
	bodyOffset        = nonceOffset + nonceLength

	// MessageHeaderLength is the size of the fixed-width prefix of an encoded message.
	MessageHeaderLength = bodyOffset
)

// Message is the canonical cross-chain payload. Its encoding is identical on every chain
// and is the exact byte sequence that gets hashed and signed.
type Message struct {
	Origin      uint32
	Sender      util.HexAddress
	Destination uint32
	Recipient   util.HexAddress
	Nonce       uint32
	Body        []byte
}

// Bytes encodes the message as
// origin(4) | sender(32) | destination(4) | recipient(32) | nonce(4) | body,
// integers big-endian.
func (m Message) Bytes() []byte {
	out := make([]byte, MessageHeaderLength+len(m.Body))
	binary.BigEndian.PutUint32(out[originOffset:], m.Origin)
	copy(out[senderOffset:destinationOffset], m.Sender[:])
	binary.BigEndian.PutUint32(out[destinationOffset:], m.Destination)
	copy(out[recipientOffset:nonceOffset], m.Recipient[:])
	binary.BigEndian.PutUint32(out[nonceOffset:], m.Nonce)
	copy(out[bodyOffset:], m.Body)
	return out
}

// ID is the keccak256 hash of the encoded message.
func (m Message) ID() util.HexAddress {
	return util.HexAddress(crypto.Keccak256Hash(m.Bytes()))
}

func (m Message) String() string {
	return fmt.Sprintf("Message{origin: %d, sender: %s, destination: %d, recipient: %s, nonce: %d, body: %d bytes}",
		m.Origin, m.Sender, m.Destination, m.Recipient, m.Nonce, len(m.Body))
}

// ParseMessage decodes an encoded message. The body is copied.
func ParseMessage(raw []byte) (Message, error) {
	if len(raw) < MessageHeaderLength {
		return Message{}, fmt.Errorf("%w: message is %d bytes, need at least %d", ErrDecode, len(raw), MessageHeaderLength)
	}

	var m Message
	m.Origin = binary.BigEndian.Uint32(raw[originOffset:])
	copy(m.Sender[:], raw[senderOffset:destinationOffset])
	m.Destination = binary.BigEndian.Uint32(raw[destinationOffset:])
	copy(m.Recipient[:], raw[recipientOffset:nonceOffset])
	m.Nonce = binary.BigEndian.Uint32(raw[nonceOffset:])
	m.Body = append([]byte{}, raw[bodyOffset:]...)
	return m, nil
}
