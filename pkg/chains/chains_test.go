package chains

import (
	"context"
	"testing"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/hyperlane-chains/pkg/config"
	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
	"github.com/celestiaorg/hyperlane-chains/pkg/ethereum"
)

func ethereumConf() config.ChainConf {
	return config.ChainConf{
		Protocol: config.ProtocolEthereum,
		Domain:   1000,
		RPCURL:   "http://localhost:8545",
		Contracts: config.Contracts{
			Outbox:  "0x00000000000000000000000000000000000000aa",
			Mailbox: "0x00000000000000000000000000000000000000bb",
		},
	}
}

func cosmosConf(t *testing.T) config.ChainConf {
	t.Helper()
	mailbox, err := cosmos.EncodeAddress("celestia", util.HexAddress{0: 1, 31: 2})
	require.NoError(t, err)
	routing, err := cosmos.EncodeAddress("celestia", util.HexAddress{0: 3, 31: 4})
	require.NoError(t, err)
	return config.ChainConf{
		Protocol: config.ProtocolCosmos,
		Domain:   69420,
		RPCURL:   "http://localhost:26657",
		GRPCURL:  "localhost:9090",
		Prefix:   "celestia",
		Contracts: config.Contracts{
			Mailbox:    mailbox,
			RoutingIsm: routing,
		},
	}
}

func TestConnectUnknownProtocol(t *testing.T) {
	conf := ethereumConf()
	conf.Protocol = "solana"

	_, err := Connect(context.Background(), "devnet", conf)
	require.ErrorIs(t, err, core.ErrUnknownProtocol)
	assert.Contains(t, err.Error(), "devnet")
}

func TestConnectInvalidConfig(t *testing.T) {
	conf := ethereumConf()
	conf.RPCURL = ""

	_, err := Connect(context.Background(), "sepolia", conf)
	require.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestConnectInvalidSignerKey(t *testing.T) {
	conf := ethereumConf()
	conf.SignerKey = "not-a-key"

	_, err := Connect(context.Background(), "sepolia", conf)
	require.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestConnectCosmos(t *testing.T) {
	conf := cosmosConf(t)

	conn, err := Connect(context.Background(), "celestia", conf)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, conn.Close()) })

	assert.Equal(t, "celestia", conn.Name())
	assert.Equal(t, uint32(69420), conn.Domain())

	_, err = conn.Outbox()
	require.ErrorIs(t, err, core.ErrUnsupportedCapability)

	mailbox, err := conn.Mailbox()
	require.NoError(t, err)
	assert.Equal(t, uint32(69420), mailbox.LocalDomain())
	assert.Equal(t, "celestia/mailbox", mailbox.Name())
}

func TestEthereumConnectionSharesTransport(t *testing.T) {
	released := 0
	shared := core.NewShared[ethereum.Client](nil, func(ethereum.Client) error {
		released++
		return nil
	})
	conn := newEthereumConnection("sepolia", ethereumConf(), shared, nil)

	outbox, err := conn.Outbox()
	require.NoError(t, err)
	assert.Equal(t, "sepolia/outbox", outbox.Name())
	assert.Equal(t, uint32(1000), outbox.LocalDomain())

	_, err = conn.Mailbox()
	require.NoError(t, err)
	_, err = conn.Indexer()
	require.NoError(t, err)
	assert.EqualValues(t, 4, shared.Refs())

	// No routing ISM address is configured.
	_, err = conn.RoutingIsm()
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.EqualValues(t, 4, shared.Refs())

	require.NoError(t, conn.Close())
	assert.EqualValues(t, 0, shared.Refs())
	assert.Equal(t, 1, released)

	require.NoError(t, conn.Close())
	assert.Equal(t, 1, released)
}

func TestConnectionClosed(t *testing.T) {
	released := 0
	shared := core.NewShared[ethereum.Client](nil, func(ethereum.Client) error {
		released++
		return nil
	})
	conn := newEthereumConnection("sepolia", ethereumConf(), shared, nil)
	require.NoError(t, conn.Close())

	_, err := conn.Outbox()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
	assert.Equal(t, 1, released)
	assert.EqualValues(t, 0, shared.Refs())
}

func TestCosmosConnection(t *testing.T) {
	conf := cosmosConf(t)
	released := 0
	shared := core.NewShared(&cosmos.Conn{Prefix: "celestia"}, func(*cosmos.Conn) error {
		released++
		return nil
	})
	conn := newCosmosConnection("celestia", conf, shared, nil)

	_, err := conn.Outbox()
	require.ErrorIs(t, err, core.ErrUnsupportedCapability)
	assert.EqualValues(t, 1, shared.Refs())

	routing, err := conn.RoutingIsm()
	require.NoError(t, err)
	assert.Equal(t, "celestia/routing_ism", routing.Name())

	// Without an outbox address the indexer reads the mailbox events.
	indexer, err := conn.Indexer()
	require.NoError(t, err)
	require.IsType(t, &cosmos.Indexer{}, indexer)
	assert.Equal(t, conf.Contracts.Mailbox, indexer.(*cosmos.Indexer).Bech32())
	assert.EqualValues(t, 3, shared.Refs())

	require.NoError(t, conn.Close())
	assert.Equal(t, 1, released)
	assert.EqualValues(t, 0, shared.Refs())
}
