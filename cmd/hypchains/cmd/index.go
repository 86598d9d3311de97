package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/celestiaorg/hyperlane-chains/pkg/chains"
	"github.com/celestiaorg/hyperlane-chains/pkg/core"
	"github.com/celestiaorg/hyperlane-chains/pkg/metrics"
)

// blockRange resolves the from and to flags against the chain's index settings and head.
func (a *app) blockRange(cmd *cobra.Command, conn chains.Connection, indexer core.Indexer) (uint32, uint32, error) {
	conf, err := a.cfg.Chain(conn.Name())
	if err != nil {
		return 0, 0, err
	}
	fs := cmd.Flags()

	from := conf.Index.From
	if fs.Changed(FlagFrom) {
		if from, err = fs.GetUint32(FlagFrom); err != nil {
			return 0, 0, err
		}
	}
	var to uint32
	if fs.Changed(FlagTo) {
		if to, err = fs.GetUint32(FlagTo); err != nil {
			return 0, 0, err
		}
	} else if to, err = indexer.GetBlockNumber(cmd.Context()); err != nil {
		return 0, 0, err
	}
	if from > to {
		return 0, 0, fmt.Errorf("empty block range: from %d is after to %d", from, to)
	}
	return from, to, nil
}

func checkpointsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints <chain>",
		Short: "List checkpoint-cache events in a block range, in chain order",
		Args:  cobra.ExactArgs(1),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, _ []string) error {
			indexer, err := conn.Indexer()
			if err != nil {
				return err
			}
			from, to, err := a.blockRange(cmd, conn, indexer)
			if err != nil {
				return err
			}
			checkpoints, err := indexer.FetchSortedCheckpoints(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			for _, c := range checkpoints {
				fmt.Fprintf(cmd.OutOrStdout(), "block=%d domain=%d root=%s index=%d\n",
					c.BlockNumber, c.Checkpoint.OutboxDomain, c.Checkpoint.Root, c.Checkpoint.Index)
			}
			return nil
		}),
	}
	addRangeFlags(cmd.Flags())
	return cmd
}

func messagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages <chain>",
		Short: "List dispatched messages in a block range, by leaf index",
		Args:  cobra.ExactArgs(1),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, _ []string) error {
			indexer, err := conn.Indexer()
			if err != nil {
				return err
			}
			from, to, err := a.blockRange(cmd, conn, indexer)
			if err != nil {
				return err
			}
			messages, err := indexer.FetchSortedMessages(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			for _, m := range messages {
				msg, err := m.Parse()
				if err != nil {
					return fmt.Errorf("leaf %d: %w", m.LeafIndex, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "leaf=%d id=%s %s\n", m.LeafIndex, msg.ID(), msg)
			}
			return nil
		}),
	}
	addRangeFlags(cmd.Flags())
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <chain>",
		Short: "Follow new dispatched messages and serve indexer metrics",
		Args:  cobra.ExactArgs(1),
		RunE: chainRunE(a, func(cmd *cobra.Command, conn chains.Connection, _ []string) error {
			fs := cmd.Flags()
			interval, err := fs.GetDuration(FlagInterval)
			if err != nil {
				return err
			}
			addr, err := fs.GetString(FlagMetrics)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m, err := metrics.NewIndexerMetrics(reg)
			if err != nil {
				return err
			}
			inner, err := conn.Indexer()
			if err != nil {
				return err
			}
			indexer := m.Instrument(conn.Name(), inner)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              addr,
				Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("serving metrics", "addr", addr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error {
				return a.follow(ctx, cmd, indexer, interval)
			})
			return g.Wait()
		}),
	}
	cmd.Flags().Duration(FlagInterval, defaultPollInterval, "how often to poll the chain head")
	cmd.Flags().String(FlagMetrics, defaultMetricsAddr, "address to serve Prometheus metrics on")
	cmd.Flags().Uint32(FlagFrom, 0, "first block to follow from (defaults to the chain head)")
	return cmd
}

// follow polls the head every interval and prints messages dispatched since the last poll.
// Transient failures are logged and retried on the next tick.
func (a *app) follow(ctx context.Context, cmd *cobra.Command, indexer core.OutboxIndexer, interval time.Duration) error {
	var next uint32
	if cmd.Flags().Changed(FlagFrom) {
		from, err := cmd.Flags().GetUint32(FlagFrom)
		if err != nil {
			return err
		}
		next = from
	} else {
		tip, err := indexer.GetBlockNumber(ctx)
		if err != nil {
			return err
		}
		next = tip + 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		tip, err := indexer.GetBlockNumber(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if core.IsRetryable(err) {
				a.logger.Error("failed to read chain head", "err", err)
				continue
			}
			return err
		}
		if tip < next {
			continue
		}
		messages, err := indexer.FetchSortedMessages(ctx, next, tip)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if core.IsRetryable(err) {
				a.logger.Error("failed to fetch messages", "from", next, "to", tip, "err", err)
				continue
			}
			return err
		}
		for _, m := range messages {
			fmt.Fprintf(cmd.OutOrStdout(), "leaf=%d message=%x\n", m.LeafIndex, m.Message)
		}
		a.logger.Debug("indexed", "from", next, "to", tip, "messages", len(messages))
		next = tip + 1
	}
}
