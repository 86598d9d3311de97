package chains

import (
	"context"
	"fmt"
	"os"

	"github.com/cosmos/cosmos-sdk/crypto/keyring"

	"github.com/celestiaorg/hyperlane-chains/pkg/config"
	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
)

const keyringAppName = "hypchains"

func connectCosmos(ctx context.Context, name string, conf config.ChainConf, o Options) (Connection, error) {
	gasPrice, err := conf.GasPriceDec()
	if err != nil {
		return nil, err
	}
	dial := cosmos.DialConf{
		GRPCURL:   conf.GRPCURL,
		RPCURL:    conf.RPCURL,
		Prefix:    conf.Prefix,
		GasPrice:  gasPrice,
		Submitter: o.CosmosSubmitter,
		KeyName:   conf.KeyName,
		FeeDenom:  conf.FeeDenom,
	}
	if o.CosmosSubmitter == nil && conf.KeyName != "" {
		if dial.Keyring, err = openKeyring(name, conf); err != nil {
			return nil, err
		}
	}

	shared, err := cosmos.Dial(ctx, dial)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("connected", "protocol", conf.Protocol, "grpc", conf.GRPCURL, "rpc", conf.RPCURL, "signer", conf.KeyName != "")
	return newCosmosConnection(name, conf, shared, []cosmos.Option{cosmos.WithLogger(o.Logger)}), nil
}

func openKeyring(name string, conf config.ChainConf) (keyring.Keyring, error) {
	enc, err := cosmos.MakeEncodingConfig(conf.Prefix)
	if err != nil {
		return nil, err
	}
	kr, err := keyring.New(keyringAppName, conf.KeyringBackendOrDefault(), conf.KeyringDir, os.Stdin, enc.Codec)
	if err != nil {
		return nil, fmt.Errorf("%w: chain %s: opening keyring: %w", core.ErrInvalidConfig, name, err)
	}
	return kr, nil
}

// cosmosConnection hands out CosmWasm adapters sharing one gRPC and RPC client pair.
// CosmWasm deployments expose no Outbox capability; the outbox address, when set, names the
// contract whose events the indexer reads.
type cosmosConnection struct {
	connection
	shared *core.Shared[*cosmos.Conn]
	opts   []cosmos.Option
}

func newCosmosConnection(name string, conf config.ChainConf, shared *core.Shared[*cosmos.Conn], opts []cosmos.Option) *cosmosConnection {
	return &cosmosConnection{
		connection: connection{name: name, conf: conf, release: shared.Close},
		shared:     shared,
		opts:       opts,
	}
}

func (c *cosmosConnection) Outbox() (core.Outbox, error) {
	return nil, unsupported(c.name, "outbox", c.conf)
}

func (c *cosmosConnection) Mailbox() (core.Mailbox, error) {
	mailbox, err := adopt(&c.connection, func() (*cosmos.Mailbox, error) {
		locator, err := c.conf.Locator(c.name, config.KindMailbox)
		if err != nil {
			return nil, err
		}
		handle := c.shared.Retain()
		mailbox, err := cosmos.NewMailbox(handle, locator, c.opts...)
		if err != nil {
			return nil, releaseOnError(handle, err)
		}
		return mailbox, nil
	})
	if err != nil {
		return nil, err
	}
	return mailbox, nil
}

func (c *cosmosConnection) RoutingIsm() (core.RoutingIsm, error) {
	routing, err := adopt(&c.connection, func() (*cosmos.RoutingIsm, error) {
		locator, err := c.conf.Locator(c.name, config.KindRoutingIsm)
		if err != nil {
			return nil, err
		}
		handle := c.shared.Retain()
		routing, err := cosmos.NewRoutingIsm(handle, locator, c.opts...)
		if err != nil {
			return nil, releaseOnError(handle, err)
		}
		return routing, nil
	})
	if err != nil {
		return nil, err
	}
	return routing, nil
}

// Indexer reads the events of the outbox contract, or of the mailbox when no outbox is
// configured.
func (c *cosmosConnection) Indexer() (core.OutboxIndexer, error) {
	indexer, err := adopt(&c.connection, func() (*cosmos.Indexer, error) {
		kind := config.KindOutbox
		if !c.conf.HasContract(kind) {
			kind = config.KindMailbox
		}
		locator, err := c.conf.Locator(c.name, kind)
		if err != nil {
			return nil, err
		}
		handle := c.shared.Retain()
		indexer, err := cosmos.NewIndexer(handle, locator, c.conf.Index.Core(), c.opts...)
		if err != nil {
			return nil, releaseOnError(handle, err)
		}
		return indexer, nil
	})
	if err != nil {
		return nil, err
	}
	return indexer, nil
}
