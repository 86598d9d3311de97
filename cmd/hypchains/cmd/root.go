package cmd

import (
	"context"
	"fmt"
	"os"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/hyperlane-chains/pkg/chains"
	"github.com/celestiaorg/hyperlane-chains/pkg/config"
)

// app is the state shared by the subcommands once the configuration is loaded.
type app struct {
	cfg    config.Config
	logger log.Logger
}

// connect opens the chain called name, logging through the command logger.
func (a *app) connect(ctx context.Context, name string) (chains.Connection, error) {
	conf, err := a.cfg.Chain(name)
	if err != nil {
		return nil, err
	}
	return chains.Connect(ctx, name, conf, chains.WithLogger(a.logger))
}

// NewRootCmd builds the hypchains command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: log.NewNopLogger()}

	rootCmd := &cobra.Command{
		Use:          "hypchains",
		Short:        "hypchains queries Hyperlane contracts across EVM and Cosmos chains.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String(FlagConfig, defaultConfigPath, "path to the TOML configuration file")
	rootCmd.PersistentFlags().String(FlagLogLevel, "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String(FlagLogFormat, "", "log format override (plain or json)")

	rootCmd.AddCommand(
		configCmd(),
		chainsCmd(a),
		tipCmd(a),
		checkpointCmd(a),
		stateCmd(a),
		countCmd(a),
		deliveredCmd(a),
		routeCmd(a),
		calldataCmd(a),
		checkpointsCmd(a),
		messagesCmd(a),
		watchCmd(a),
	)
	return rootCmd
}

// skipConfigAnnotation marks commands that run without a configuration file.
const skipConfigAnnotation = "hypchains/skip-config"

func (a *app) load(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	level, format := cfg.LogLevel, cfg.LogFormat
	if v, _ := cmd.Flags().GetString(FlagLogLevel); v != "" {
		level = v
	}
	if v, _ := cmd.Flags().GetString(FlagLogFormat); v != "" {
		format = v
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
