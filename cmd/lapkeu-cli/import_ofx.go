package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lapkeu/internal/cli"
	applog "lapkeu/internal/log"
	"lapkeu/internal/ofx"
	"lapkeu/internal/repository"
	"lapkeu/internal/services"
)

func importOFXCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import-ofx FILE...",
		Short: "Import OFX/QFX bank statements as transactions",
		Long: `Import OFX/QFX bank and credit card statements. Debits become expenses
and credits become income. Entries already imported are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := ofx.NewParser()
			var drafts []repository.Draft
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				parsed, err := parser.Parse(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				a.logger.Info("Parsed statement", "file", path, applog.FieldCount, len(parsed))
				drafts = append(drafts, parsed...)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, cli.RenderDrafts(drafts))
				fmt.Fprintln(out, cli.SubtitleStyle.Render(fmt.Sprintf("%d transactions, nothing written (dry run)", len(drafts))))
				return nil
			}

			ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer ledger.Close()

			svc := services.NewTransactionService(ledger, nil)
			created, skipped, err := svc.Import(cmd.Context(), drafts)
			fmt.Fprintln(out, cli.SuccessStyle.Render(fmt.Sprintf("Imported %d transactions", len(created))))
			if skipped > 0 {
				fmt.Fprintln(out, cli.WarningStyle.Render(fmt.Sprintf("Skipped %d already in the ledger", skipped)))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be imported without writing")
	return cmd
}
