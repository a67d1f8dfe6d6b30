package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lapkeu/internal/calc"
)

func calcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calc EXPR",
		Short: "Evaluate an amount expression like the entry form calculator",
		Example: `  lapkeu-cli calc "1,000*3+(500/2)"`,
		Args: cobra.MinimumNArgs(1),
		// calc needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := calc.Eval(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), calc.Format(v.String()))
			return nil
		},
	}
}
