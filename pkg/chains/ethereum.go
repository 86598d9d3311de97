package chains

import (
	"context"
	"fmt"

	"github.com/celestiaorg/hyperlane-chains/pkg/config"
	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/ethereum"
)

func connectEthereum(ctx context.Context, name string, conf config.ChainConf, o Options) (Connection, error) {
	adapterOpts := []ethereum.Option{ethereum.WithLogger(o.Logger)}
	if conf.SignerKey != "" {
		key, err := ethereum.ParsePrivateKey(conf.SignerKey)
		if err != nil {
			return nil, fmt.Errorf("%w: chain %s: %w", core.ErrInvalidConfig, name, err)
		}
		adapterOpts = append(adapterOpts, ethereum.WithTransactOpts(ethereum.NewKeyedTransactOptsBuilder(key)))
	}

	shared, err := ethereum.Dial(ctx, conf.RPCURL)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("connected", "protocol", conf.Protocol, "rpc", conf.RPCURL)
	return newEthereumConnection(name, conf, shared, adapterOpts), nil
}

// ethereumConnection hands out EVM adapters sharing one JSON-RPC client.
type ethereumConnection struct {
	connection
	shared *core.Shared[ethereum.Client]
	opts   []ethereum.Option
}

func newEthereumConnection(name string, conf config.ChainConf, shared *core.Shared[ethereum.Client], opts []ethereum.Option) *ethereumConnection {
	return &ethereumConnection{
		connection: connection{name: name, conf: conf, release: shared.Close},
		shared:     shared,
		opts:       opts,
	}
}

func (c *ethereumConnection) Outbox() (core.Outbox, error) {
	outbox, err := adopt(&c.connection, func() (*ethereum.Outbox, error) {
		locator, err := c.conf.Locator(c.name, config.KindOutbox)
		if err != nil {
			return nil, err
		}
		return ethereum.NewOutbox(c.shared.Retain(), locator, c.opts...), nil
	})
	if err != nil {
		return nil, err
	}
	return outbox, nil
}

func (c *ethereumConnection) Mailbox() (core.Mailbox, error) {
	mailbox, err := adopt(&c.connection, func() (*ethereum.Mailbox, error) {
		locator, err := c.conf.Locator(c.name, config.KindMailbox)
		if err != nil {
			return nil, err
		}
		return ethereum.NewMailbox(c.shared.Retain(), locator, c.opts...), nil
	})
	if err != nil {
		return nil, err
	}
	return mailbox, nil
}

func (c *ethereumConnection) RoutingIsm() (core.RoutingIsm, error) {
	routing, err := adopt(&c.connection, func() (*ethereum.RoutingIsm, error) {
		locator, err := c.conf.Locator(c.name, config.KindRoutingIsm)
		if err != nil {
			return nil, err
		}
		return ethereum.NewRoutingIsm(c.shared.Retain(), locator, c.opts...), nil
	})
	if err != nil {
		return nil, err
	}
	return routing, nil
}

// Indexer indexes the outbox contract.
func (c *ethereumConnection) Indexer() (core.OutboxIndexer, error) {
	indexer, err := adopt(&c.connection, func() (*ethereum.OutboxIndexer, error) {
		locator, err := c.conf.Locator(c.name, config.KindOutbox)
		if err != nil {
			return nil, err
		}
		return ethereum.NewOutboxIndexer(c.shared.Retain(), locator, c.conf.Index.Core(), c.opts...), nil
	})
	if err != nil {
		return nil, err
	}
	return indexer, nil
}
