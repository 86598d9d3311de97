package cosmos

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/cosmos/cosmos-sdk/types/bech32"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

const accountAddressLength = 20

var accountPadding = make([]byte, 32-accountAddressLength)

// DecodeAddress converts a bech32 address into its 32-byte form. 20-byte account addresses
// are left-padded with zeros; 32-byte contract addresses are taken verbatim.
func DecodeAddress(addr string) (util.HexAddress, error) {
	_, bz, err := bech32.DecodeAndConvert(addr)
	if err != nil {
		return util.HexAddress{}, fmt.Errorf("%w: invalid bech32 address %q: %w", core.ErrDecode, addr, err)
	}

	var out util.HexAddress
	switch len(bz) {
	case accountAddressLength:
		copy(out[len(accountPadding):], bz)
	case len(out):
		copy(out[:], bz)
	default:
		return util.HexAddress{}, fmt.Errorf("%w: address %q has %d bytes, want 20 or 32", core.ErrDecode, addr, len(bz))
	}
	return out, nil
}

// DecodeContractAddress converts the bech32 address of a CosmWasm contract into its 32-byte
// form. Contract addresses are always 32 bytes, so shorter account addresses are rejected.
func DecodeContractAddress(addr string) (util.HexAddress, error) {
	_, bz, err := bech32.DecodeAndConvert(addr)
	if err != nil {
		return util.HexAddress{}, fmt.Errorf("%w: invalid bech32 address %q: %w", core.ErrDecode, addr, err)
	}
	var out util.HexAddress
	if len(bz) != len(out) {
		return util.HexAddress{}, fmt.Errorf("%w: contract address %q has %d bytes, want 32", core.ErrDecode, addr, len(bz))
	}
	copy(out[:], bz)
	return out, nil
}

// EncodeContractAddress renders the 32-byte address of a contract as bech32 with prefix.
func EncodeContractAddress(prefix string, addr util.HexAddress) (string, error) {
	out, err := bech32.ConvertAndEncode(prefix, addr[:])
	if err != nil {
		return "", fmt.Errorf("%w: encoding address with prefix %q: %w", core.ErrInvalidConfig, prefix, err)
	}
	return out, nil
}

// EncodeAddress renders addr as bech32 with prefix when its kind is unknown, as for message
// recipients. An address whose leading 12 bytes are zero is taken to be a padded 20-byte
// account address; contract addresses go through EncodeContractAddress instead.
func EncodeAddress(prefix string, addr util.HexAddress) (string, error) {
	bz := addr[:]
	if bytes.Equal(bz[:len(accountPadding)], accountPadding) {
		bz = bz[len(accountPadding):]
	}
	out, err := bech32.ConvertAndEncode(prefix, bz)
	if err != nil {
		return "", fmt.Errorf("%w: encoding address with prefix %q: %w", core.ErrInvalidConfig, prefix, err)
	}
	return out, nil
}

func encodeHex(bz []byte) string {
	return hex.EncodeToString(bz)
}

// decodeHex accepts hex with or without a 0x prefix.
func decodeHex(s string) ([]byte, error) {
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex %q: %w", core.ErrDecode, s, err)
	}
	return bz, nil
}

func decodeHex32(s string) (util.HexAddress, error) {
	bz, err := decodeHex(s)
	if err != nil {
		return util.HexAddress{}, err
	}
	if len(bz) != 32 {
		return util.HexAddress{}, fmt.Errorf("%w: %q is %d bytes, want 32", core.ErrDecode, s, len(bz))
	}
	return util.HexAddress(bz), nil
}
