package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/formulaspark/formulaspark/pkg/formula"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List formula templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTEMPLATE")
			for _, name := range formula.TemplateNames() {
				fmt.Fprintf(w, "%s\t%s\n", name, formula.Templates[name])
			}
			return w.Flush()
		},
	}
}
