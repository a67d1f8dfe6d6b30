package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lapkeu/internal/auth"
	"lapkeu/internal/cli"
)

var errWrongPIN = errors.New("PIN salah")

func loginCmd(a *app) *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check a PIN against ADMIN_PIN",
		Long:  "Check a PIN against the configured ADMIN_PIN. Without --pin the PIN is read from the first line of stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("pin") {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return auth.ErrEmptyPIN
				}
				pin = strings.TrimSpace(line)
			}

			ok, err := auth.NewGate(a.cfg.AdminPIN).Verify(pin)
			if err != nil {
				return err
			}
			if !ok {
				return errWrongPIN
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("PIN benar"))
			return nil
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "PIN to check")
	return cmd
}
