package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagLag       = "lag"
	FlagFrom      = "from"
	FlagTo        = "to"
	FlagMetadata  = "metadata"
	FlagInterval  = "interval"
	FlagMetrics   = "metrics-addr"
)

// Defaults
var (
	// defaultConfigPath is used when the config flag isn't provided.
	defaultConfigPath = filepath.Join(userHome(), ".hypchains", "config.toml")
	// defaultPollInterval is how often watch polls the chain head.
	defaultPollInterval = 6 * time.Second
	// defaultMetricsAddr is where watch serves Prometheus metrics.
	defaultMetricsAddr = "localhost:9464"
)

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// addLagFlag registers the lag flag. A negative value reads at the chain head.
func addLagFlag(fs *pflag.FlagSet) {
	fs.Int64(FlagLag, -1, "read this many blocks behind the chain head (negative reads at the head)")
}

// lagFromFlags returns nil when no lag was requested.
func lagFromFlags(fs *pflag.FlagSet) (*uint64, error) {
	lag, err := fs.GetInt64(FlagLag)
	if err != nil {
		return nil, err
	}
	if lag < 0 {
		return nil, nil
	}
	v := uint64(lag)
	return &v, nil
}

// addRangeFlags registers the inclusive block range flags of the index commands.
func addRangeFlags(fs *pflag.FlagSet) {
	fs.Uint32(FlagFrom, 0, "first block to index (defaults to the chain's index.from)")
	fs.Uint32(FlagTo, 0, "last block to index (defaults to the chain head)")
}
