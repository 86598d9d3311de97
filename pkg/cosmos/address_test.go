package cosmos_test

import (
	"testing"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
)

func TestAddressRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		addr    util.HexAddress
		rawSize int
	}{
		{name: "account", addr: util.HexAddress{12: 0xaa, 31: 0xbb}, rawSize: 20},
		{name: "contract", addr: contractAddress(), rawSize: 32},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := cosmos.EncodeAddress(testPrefix, tc.addr)
			require.NoError(t, err)

			hrp, raw, err := bech32.DecodeAndConvert(encoded)
			require.NoError(t, err)
			require.Equal(t, testPrefix, hrp)
			require.Len(t, raw, tc.rawSize)

			decoded, err := cosmos.DecodeAddress(encoded)
			require.NoError(t, err)
			require.Equal(t, tc.addr, decoded)
		})
	}
}

func TestContractAddressKeepsLeadingZeros(t *testing.T) {
	addr := util.HexAddress{12: 0xaa, 31: 0xbb}

	encoded, err := cosmos.EncodeContractAddress(testPrefix, addr)
	require.NoError(t, err)
	_, raw, err := bech32.DecodeAndConvert(encoded)
	require.NoError(t, err)
	require.Len(t, raw, 32)

	decoded, err := cosmos.DecodeContractAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, addr, decoded)

	account, err := cosmos.EncodeAddress(testPrefix, addr)
	require.NoError(t, err)
	require.NotEqual(t, encoded, account)
	_, err = cosmos.DecodeContractAddress(account)
	require.ErrorIs(t, err, core.ErrDecode)
}

func TestDecodeAddressInvalid(t *testing.T) {
	tooShort, err := bech32.ConvertAndEncode(testPrefix, make([]byte, 16))
	require.NoError(t, err)

	for _, input := range []string{"", "not-bech32", "celestia1qqqq", tooShort} {
		_, err := cosmos.DecodeAddress(input)
		require.ErrorIs(t, err, core.ErrDecode, "input %q", input)
	}
}
