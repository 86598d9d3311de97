package cosmos_test

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
)

func routeQuery(msg core.Message) string {
	return fmt.Sprintf(`{"route":{"message":"%s"}}`, hex.EncodeToString(msg.Bytes()))
}

func TestRoutingIsmRoute(t *testing.T) {
	f := newFixture()
	routing, err := cosmos.NewRoutingIsm(f.conn, testLocator("routing"))
	require.NoError(t, err)
	defer routing.Close()

	ism := util.HexAddress{0: 0x77, 31: 0x01}
	msg := testMessage()
	f.provider.responses[routeQuery(msg)] = fmt.Sprintf(`{"ism":"%s"}`, mustEncode(ism))

	got, err := routing.Route(context.Background(), msg)
	require.NoError(t, err)
	require.Equal(t, ism, got)

	require.Len(t, f.provider.queries, 1)
	require.Equal(t, mustEncode(contractAddress()), f.provider.queries[0].contract)
	require.Nil(t, f.provider.queries[0].height)
	require.Equal(t, uint32(69420), routing.LocalDomain())
	require.Equal(t, "routing", routing.Name())
}

func TestRoutingIsmRouteErrors(t *testing.T) {
	msg := testMessage()

	testCases := []struct {
		name     string
		response string
		provErr  error
		want     error
	}{
		{name: "malformed json", response: `{"ism":`, want: core.ErrDecode},
		{name: "malformed address", response: `{"ism":"celestia1zzzz"}`, want: core.ErrDecode},
		{name: "transport failure", provErr: errors.New("unavailable"), want: core.ErrChainCommunication},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.provider.err = tc.provErr
			f.provider.responses[routeQuery(msg)] = tc.response
			routing, err := cosmos.NewRoutingIsm(f.conn, testLocator("routing"))
			require.NoError(t, err)

			_, err = routing.Route(context.Background(), msg)
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, tc.want == core.ErrChainCommunication, core.IsRetryable(err))
		})
	}
}
