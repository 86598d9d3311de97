// Package config loads the chain connection settings of the hypchains tooling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// EnvPrefix prefixes every environment variable override, e.g.
// HYP_CHAINS_SEPOLIA_RPC_URL overrides chains.sepolia.rpc_url.
const EnvPrefix = "HYP"

// Protocol tags a chain family.
type Protocol string

const (
	ProtocolEthereum Protocol = "ethereum"
	ProtocolCosmos   Protocol = "cosmos"
)

// Protocols lists every supported chain family.
var Protocols = []Protocol{ProtocolEthereum, ProtocolCosmos}

// Config is the root of the configuration file. Chain names are case-insensitive and are
// normalized to lower case.
type Config struct {
	LogLevel  string               `mapstructure:"log_level" toml:"log_level"`
	LogFormat string               `mapstructure:"log_format" toml:"log_format"`
	Chains    map[string]ChainConf `mapstructure:"chains" toml:"chains"`
}

// ChainConf holds the connection settings and contract addresses of one chain.
type ChainConf struct {
	Protocol Protocol `mapstructure:"protocol" toml:"protocol"`
	Domain   uint32   `mapstructure:"domain" toml:"domain"`
	RPCURL   string   `mapstructure:"rpc_url" toml:"rpc_url"`
	// GRPCURL and Prefix are required for cosmos chains only.
	GRPCURL string `mapstructure:"grpc_url" toml:"grpc_url,omitempty"`
	Prefix  string `mapstructure:"prefix" toml:"prefix,omitempty"`
	// GasPrice is a decimal in the chain's smallest fee unit. Cosmos outcomes and estimates
	// quote it; EVM chains use the node's suggestion.
	GasPrice string `mapstructure:"gas_price" toml:"gas_price,omitempty"`
	// SignerKey is a hex secp256k1 key used to sign EVM transactions.
	SignerKey string `mapstructure:"signer_key" toml:"signer_key,omitempty"`
	// KeyName selects the keyring key that signs cosmos transactions. Fees are paid in
	// FeeDenom. Without a key cosmos chains are read-only.
	KeyName        string `mapstructure:"key_name" toml:"key_name,omitempty"`
	KeyringBackend string `mapstructure:"keyring_backend" toml:"keyring_backend,omitempty"`
	KeyringDir     string `mapstructure:"keyring_dir" toml:"keyring_dir,omitempty"`
	FeeDenom       string `mapstructure:"fee_denom" toml:"fee_denom,omitempty"`

	Contracts Contracts `mapstructure:"contracts" toml:"contracts"`
	Index     IndexConf `mapstructure:"index" toml:"index"`
}

// Contracts holds chain-native contract addresses: hex for EVM, bech32 for cosmos. Empty
// entries leave the capability unconfigured.
type Contracts struct {
	Outbox     string `mapstructure:"outbox" toml:"outbox,omitempty"`
	Mailbox    string `mapstructure:"mailbox" toml:"mailbox,omitempty"`
	RoutingIsm string `mapstructure:"routing_ism" toml:"routing_ism,omitempty"`
}

// IndexConf bounds event scans.
type IndexConf struct {
	From  uint32 `mapstructure:"from" toml:"from"`
	Chunk uint32 `mapstructure:"chunk" toml:"chunk"`
}

// Core converts the index settings into the adapter form.
func (c IndexConf) Core() core.IndexConf {
	return core.IndexConf{From: c.From, Chunk: c.Chunk}
}

// DefaultConfig returns a configuration with one example chain of each family.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "plain",
		Chains: map[string]ChainConf{
			"sepolia": {
				Protocol: ProtocolEthereum,
				Domain:   11155111,
				RPCURL:   "http://localhost:8545",
				Contracts: Contracts{
					Outbox:  "0x0000000000000000000000000000000000000000",
					Mailbox: "0x0000000000000000000000000000000000000000",
				},
				Index: IndexConf{Chunk: 2000},
			},
			"celestia": {
				Protocol: ProtocolCosmos,
				Domain:   69420,
				RPCURL:   "http://localhost:26657",
				GRPCURL:  "localhost:9090",
				Prefix:   "celestia",
				GasPrice: "0.002",
				FeeDenom: "utia",
				Index:    IndexConf{Chunk: 500},
			},
		},
	}
}

// Load reads the TOML file at path, applies HYP_ environment overrides and validates the
// result.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "plain")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decoding %s: %w", core.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteDefault writes DefaultConfig to path, creating parent directories. An existing file
// is left untouched and reported as an error.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	bz, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	return os.WriteFile(path, bz, 0o600)
}

// Validate checks every chain.
func (c Config) Validate() error {
	if len(c.Chains) == 0 {
		return fmt.Errorf("%w: no chains configured", core.ErrInvalidConfig)
	}
	for _, name := range c.ChainNames() {
		if err := c.Chains[name].Validate(name); err != nil {
			return err
		}
	}
	return nil
}

// ChainNames returns the configured chain names in sorted order.
func (c Config) ChainNames() []string {
	names := make([]string, 0, len(c.Chains))
	for name := range c.Chains {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Chain looks up a chain by name.
func (c Config) Chain(name string) (ChainConf, error) {
	chain, ok := c.Chains[strings.ToLower(name)]
	if !ok {
		return ChainConf{}, fmt.Errorf("%w: chain %q is not configured", core.ErrInvalidConfig, name)
	}
	return chain, nil
}

// Validate checks one chain's settings. name is used in error messages only.
func (c ChainConf) Validate(name string) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: chain %q: %s", core.ErrInvalidConfig, name, fmt.Sprintf(format, args...))
	}

	if !slices.Contains(Protocols, c.Protocol) {
		return invalid("unknown protocol %q", c.Protocol)
	}
	if c.RPCURL == "" {
		return invalid("rpc_url is required")
	}
	if c.Protocol == ProtocolCosmos {
		if c.GRPCURL == "" {
			return invalid("grpc_url is required")
		}
		if c.Prefix == "" {
			return invalid("prefix is required")
		}
		if c.KeyName != "" {
			if c.FeeDenom == "" {
				return invalid("fee_denom is required with key_name")
			}
			if !slices.Contains(keyringBackends, c.KeyringBackendOrDefault()) {
				return invalid("unknown keyring_backend %q", c.KeyringBackend)
			}
		}
	}
	if c.GasPrice != "" {
		if _, err := c.GasPriceDec(); err != nil {
			return invalid("%v", err)
		}
	}
	for kind, addr := range c.Contracts.byKind() {
		if addr == "" {
			continue
		}
		if _, err := c.ParseAddress(addr); err != nil {
			return invalid("contract %s: %v", kind, err)
		}
	}
	return nil
}

var keyringBackends = []string{
	keyring.BackendOS, keyring.BackendFile, keyring.BackendKWallet,
	keyring.BackendPass, keyring.BackendTest, keyring.BackendMemory,
}

// KeyringBackendOrDefault returns the keyring backend, defaulting to the OS keyring.
func (c ChainConf) KeyringBackendOrDefault() string {
	if c.KeyringBackend == "" {
		return keyring.BackendOS
	}
	return c.KeyringBackend
}

// GasPriceDec parses GasPrice, defaulting to zero.
func (c ChainConf) GasPriceDec() (math.LegacyDec, error) {
	if c.GasPrice == "" {
		return math.LegacyZeroDec(), nil
	}
	dec, err := math.LegacyNewDecFromStr(c.GasPrice)
	if err != nil {
		return math.LegacyDec{}, fmt.Errorf("invalid gas_price %q: %w", c.GasPrice, err)
	}
	if dec.IsNegative() {
		return math.LegacyDec{}, fmt.Errorf("negative gas_price %q", c.GasPrice)
	}
	return dec, nil
}

func (c Contracts) byKind() map[string]string {
	return map[string]string{
		KindOutbox:     c.Outbox,
		KindMailbox:    c.Mailbox,
		KindRoutingIsm: c.RoutingIsm,
	}
}
