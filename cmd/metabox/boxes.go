package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-metabox/pkg/metabox"
)

func newBoxesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "boxes",
		Short: "List the registered boxes and the meta keys they store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tKIND\tCONTEXT\tCAPABILITY\tENABLES\tMETA KEYS")
			for _, box := range a.runtime.Registry.Boxes() {
				cfg := box.Config()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					cfg.Key, box.Kind(), cfg.Context, cfg.Capability,
					strings.Join(cfg.Enables, ","),
					strings.Join(metabox.StorageKeys(box), ","))
			}
			return w.Flush()
		},
	}
}
