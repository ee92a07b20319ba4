package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	measurement "github.com/trifle-io/measurement_go"
)

func newFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the known fields and their wire keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printFields(cmd.OutOrStdout(), measurement.DefaultRegistry())
		},
	}
}

func printFields(out io.Writer, registry *measurement.Registry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tSHAPE\tWIRE KEY")
	for _, desc := range registry.Descriptors() {
		wire := desc.WireKey
		if desc.Compound != nil {
			suffixes := make([]string, 0, len(desc.Compound.SubFields))
			for _, sub := range desc.Compound.SubFields {
				suffixes = append(suffixes, sub.Suffix)
			}
			wire = desc.Compound.WireKey(1, 1, "{"+strings.Join(suffixes, ",")+"}")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", desc.Kind, desc.Shape, wire)
	}
	return w.Flush()
}
