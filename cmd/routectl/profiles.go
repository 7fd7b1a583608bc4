package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deliveryroute/deliveryroute/internal/fleet"
)

func newProfilesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Print the vehicle profile table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := fleet.DefaultRegistry()
			if file != "" {
				loaded, err := fleet.LoadFile(file)
				if err != nil {
					return err
				}
				registry = loaded
			}
			return printProfiles(cmd.OutOrStdout(), registry)
		},
	}
	cmd.Flags().StringVar(&file, "file", os.Getenv("VEHICLE_PROFILES_FILE"), "YAML vehicle profile table")

	return cmd
}

func printProfiles(out io.Writer, registry *fleet.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCAPACITY")
	for _, r := range registry.Reserved() {
		fmt.Fprintf(tw, "%g\t%s\t%g\n", r.Code, r.Name, r.Capacity)
	}
	fmt.Fprintf(tw, "*\tdefault\t%g\n", registry.DefaultCapacity())
	return tw.Flush()
}
