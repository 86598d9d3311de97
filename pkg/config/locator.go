package config

import (
	"fmt"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
)

// Contract kinds, used as locator names.
const (
	KindOutbox     = "outbox"
	KindMailbox    = "mailbox"
	KindRoutingIsm = "routing_ism"
)

// ParseAddress decodes a chain-native address into 32 bytes. EVM chains accept a 20-byte
// hex address (left-padded) or a 32-byte hex address; cosmos chains accept the bech32
// address of a contract.
func (c ChainConf) ParseAddress(addr string) (util.HexAddress, error) {
	switch c.Protocol {
	case ProtocolEthereum:
		if common.IsHexAddress(addr) {
			return util.HexAddress(common.BytesToHash(common.HexToAddress(addr).Bytes())), nil
		}
		bz := common.FromHex(addr)
		if len(bz) != common.HashLength {
			return util.HexAddress{}, fmt.Errorf("%w: %q is not a 20 or 32 byte hex address", core.ErrDecode, addr)
		}
		return util.HexAddress(bz), nil
	case ProtocolCosmos:
		return cosmos.DecodeContractAddress(addr)
	default:
		return util.HexAddress{}, fmt.Errorf("%w: unknown protocol %q", core.ErrInvalidConfig, c.Protocol)
	}
}

// Locator builds the locator of the contract of the given kind on chain name.
func (c ChainConf) Locator(name, kind string) (core.ContractLocator, error) {
	raw, ok := c.Contracts.byKind()[kind]
	if !ok {
		return core.ContractLocator{}, fmt.Errorf("%w: unknown contract kind %q", core.ErrInvalidConfig, kind)
	}
	if raw == "" {
		return core.ContractLocator{}, fmt.Errorf("%w: chain %q has no %s address", core.ErrInvalidConfig, name, kind)
	}
	addr, err := c.ParseAddress(raw)
	if err != nil {
		return core.ContractLocator{}, err
	}
	return core.ContractLocator{
		Domain:  c.Domain,
		Address: addr,
		Name:    name + "/" + kind,
	}, nil
}

// HasContract reports whether an address is configured for kind.
func (c ChainConf) HasContract(kind string) bool {
	return c.Contracts.byKind()[kind] != ""
}
