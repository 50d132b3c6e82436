package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/formulaspark/formulaspark/pkg/formula"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate \"formula\"",
		Short: "Check a formula's syntax and suggest improvements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleaned := formula.Clean(args[0])
			if err := formula.Validate(cleaned); err != nil {
				return fmt.Errorf("invalid formula: %w", err)
			}

			fmt.Println("Formula is valid.")
			fmt.Printf("Complexity: %d\n", formula.Complexity(cleaned))
			if usage := formula.Functions(cleaned); len(usage) > 0 {
				names := make([]string, 0, len(usage))
				for fn := range usage {
					names = append(names, fn)
				}
				sort.Strings(names)
				fmt.Printf("Functions:  %s\n", strings.Join(names, ", "))
			}
			if suggestions := formula.Suggestions(cleaned); len(suggestions) > 0 {
				fmt.Println("Suggestions:")
				for _, s := range suggestions {
					fmt.Printf("  - %s\n", s)
				}
			}
			return nil
		},
	}
}
