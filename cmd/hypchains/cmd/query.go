package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/celestiaorg/hyperlane-chains/pkg/chains"
	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// chainRunE opens the chain named by the first argument, runs fn and closes the chain.
func chainRunE(a *app, fn func(cmd *cobra.Command, conn chains.Connection, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		conn, err := a.connect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, conn.Close())
		}()
		return fn(cmd, conn, args[1:])
	}
}

// decodeHexArg decodes a hex argument with or without the 0x prefix.
func decodeHexArg(name, s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	bz, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return bz, nil
}

func messageArg(s string) (core.Message, error) {
	raw, err := decodeHexArg("message", s)
	if err != nil {
		return core.Message{}, err
	}
	return core.ParseMessage(raw)
}

func tipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tip <chain>",
		Short: "Print the current block height seen by the chain's indexer",
		Args:  cobra.ExactArgs(1),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, _ []string) error {
			indexer, err := conn.Indexer()
			if err != nil {
				return err
			}
			height, err := indexer.GetBlockNumber(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), height)
			return nil
		}),
	}
}

func checkpointCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint <chain>",
		Short: "Print the latest cached checkpoint of the outbox",
		Args:  cobra.ExactArgs(1),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, _ []string) error {
			lag, err := lagFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			outbox, err := conn.Outbox()
			if err != nil {
				return err
			}
			checkpoint, err := outbox.LatestCachedCheckpoint(cmd.Context(), lag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "domain=%d root=%s index=%d\n", checkpoint.OutboxDomain, checkpoint.Root, checkpoint.Index)
			return nil
		}),
	}
	addLagFlag(cmd.Flags())
	return cmd
}

func stateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "state <chain>",
		Short: "Print the lifecycle state and message count of the outbox",
		Args:  cobra.ExactArgs(1),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, _ []string) error {
			outbox, err := conn.Outbox()
			if err != nil {
				return err
			}
			state, err := outbox.State(cmd.Context())
			if err != nil {
				return err
			}
			count, err := outbox.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state=%s count=%d\n", state, count)
			return nil
		}),
	}
}

func countCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <chain>",
		Short: "Print the message count of the mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, _ []string) error {
			lag, err := lagFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			mailbox, err := conn.Mailbox()
			if err != nil {
				return err
			}
			count, err := mailbox.Count(cmd.Context(), lag)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		}),
	}
	addLagFlag(cmd.Flags())
	return cmd
}

func deliveredCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delivered <chain> <message-id>",
		Short: "Report whether the mailbox has processed a message",
		Args:  cobra.ExactArgs(2),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, args []string) error {
			id, err := util.DecodeHexAddress(args[0])
			if err != nil {
				return fmt.Errorf("invalid message id: %w", err)
			}
			mailbox, err := conn.Mailbox()
			if err != nil {
				return err
			}
			delivered, err := mailbox.Delivered(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), delivered)
			return nil
		}),
	}
}

func routeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <chain> <message-hex>",
		Short: "Print the ISM the routing ISM selects for a message",
		Args:  cobra.ExactArgs(2),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, args []string) error {
			msg, err := messageArg(args[0])
			if err != nil {
				return err
			}
			ism, err := conn.RoutingIsm()
			if err != nil {
				return err
			}
			selected, err := ism.Route(cmd.Context(), msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), selected)
			return nil
		}),
	}
}

func calldataCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calldata <chain> <message-hex>",
		Short: "Print the process payload a relayer would submit for a message",
		Args:  cobra.ExactArgs(2),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, args []string) error {
			msg, err := messageArg(args[0])
			if err != nil {
				return err
			}
			var metadata []byte
			if raw, _ := cmd.Flags().GetString(FlagMetadata); raw != "" {
				if metadata, err = decodeHexArg("metadata", raw); err != nil {
					return err
				}
			}
			mailbox, err := conn.Mailbox()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%s\n%s\n", msg.ID(), hexutil.Encode(mailbox.ProcessCalldata(msg, metadata)))
			return nil
		}),
	}
	cmd.Flags().String(FlagMetadata, "", "hex-encoded ISM metadata")
	return cmd
}
