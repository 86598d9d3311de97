// Package chains builds capability handles for a configured chain, selecting the adapter
// family by the chain's protocol tag.
package chains

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cosmossdk.io/log"

	"github.com/celestiaorg/hyperlane-chains/pkg/config"
	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/cosmos"
)

// Connection holds the capability handles of one chain. Every handle shares the
// connection's transport; Close releases all of them.
type Connection interface {
	Name() string
	Domain() uint32
	Outbox() (core.Outbox, error)
	Mailbox() (core.Mailbox, error)
	RoutingIsm() (core.RoutingIsm, error)
	Indexer() (core.OutboxIndexer, error)
	Close() error
}

// Builder connects to one chain family.
type Builder func(ctx context.Context, name string, conf config.ChainConf, opts Options) (Connection, error)

// Options carries the collaborators a builder may need.
type Options struct {
	Logger          log.Logger
	CosmosSubmitter cosmos.Submitter
}

// Option configures Connect.
type Option func(*Options)

// WithLogger sets the logger handed to every adapter.
func WithLogger(logger log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithCosmosSubmitter sets the transaction submitter of cosmos chains. Without it cosmos
// write operations fail with core.ErrNoSubmitter.
func WithCosmosSubmitter(submitter cosmos.Submitter) Option {
	return func(o *Options) {
		o.CosmosSubmitter = submitter
	}
}

// builders maps each supported chain family to its connector.
var builders = map[config.Protocol]Builder{
	config.ProtocolEthereum: connectEthereum,
	config.ProtocolCosmos:   connectCosmos,
}

// Connect validates conf and connects to chain name with the builder of its protocol.
func Connect(ctx context.Context, name string, conf config.ChainConf, opts ...Option) (Connection, error) {
	builder, ok := builders[conf.Protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %q (chain %s)", core.ErrUnknownProtocol, conf.Protocol, name)
	}
	if err := conf.Validate(name); err != nil {
		return nil, err
	}

	o := Options{Logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	o.Logger = o.Logger.With("chain", name)
	return builder(ctx, name, conf, o)
}

func unsupported(name, capability string, conf config.ChainConf) error {
	return fmt.Errorf("%w: %s on %s chain %s", core.ErrUnsupportedCapability, capability, conf.Protocol, name)
}

// connection tracks the adapters handed out so Close can release their handles.
type connection struct {
	name   string
	conf   config.ChainConf
	mu     sync.Mutex
	owned  []interface{ Close() error }
	closed bool
	// release drops the connection's own handle on the transport.
	release func() error
}

func (c *connection) Name() string   { return c.name }
func (c *connection) Domain() uint32 { return c.conf.Domain }

// adopt builds an adapter under the connection lock and tracks it for Close. Building
// after Close fails, so no transport handle is retained past release.
func adopt[A interface{ Close() error }](c *connection, build func() (A, error)) (A, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero A
	if c.closed {
		return zero, fmt.Errorf("connection to %s is closed", c.name)
	}
	adapter, err := build()
	if err != nil {
		return zero, err
	}
	c.owned = append(c.owned, adapter)
	return adapter, nil
}

func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	errs := make([]error, 0, len(c.owned)+1)
	for _, adapter := range c.owned {
		errs = append(errs, adapter.Close())
	}
	errs = append(errs, c.release())
	return errors.Join(errs...)
}

// releaseOnError drops a handle retained for an adapter that failed to build.
func releaseOnError[T any](handle *core.Shared[T], err error) error {
	return errors.Join(err, handle.Close())
}
