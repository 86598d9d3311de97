package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/hyperlane-chains/pkg/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the hypchains configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write a default configuration file",
		Long:        "Write a default configuration with one example chain of each family. An existing file is never overwritten.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(FlagConfig)
			if err != nil {
				return err
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

func chainsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List the configured chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROTOCOL\tDOMAIN\tCONTRACTS")
			for _, name := range a.cfg.ChainNames() {
				conf := a.cfg.Chains[name]
				var kinds []string
				for _, kind := range []string{config.KindOutbox, config.KindMailbox, config.KindRoutingIsm} {
					if conf.HasContract(kind) {
						kinds = append(kinds, kind)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", name, conf.Protocol, conf.Domain, kinds)
			}
			return w.Flush()
		},
	}
}
