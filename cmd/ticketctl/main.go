// Package main implements ticketctl, a terminal front end for the ticket API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deskops/ticket-desk/internal/client"
	"github.com/deskops/ticket-desk/internal/config"
	"github.com/deskops/ticket-desk/internal/observability"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperrors.UserMessage(err))
		if domainErr := apperrors.ToDomainError(err); len(domainErr.Details) > 0 {
			for field, problem := range domainErr.Details {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", field, problem)
			}
		}
		os.Exit(1)
	}
}

// app carries what every command needs once flags are parsed.
type app struct {
	api    *client.Client
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var apiURL, logLevel string

	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Browse and manage support tickets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.Backend.BaseURL = apiURL
			}
			if logLevel != "" {
				cfg.Logger.Level = logLevel
			}
			logger, err := newCLILogger(cfg.Logger)
			if err != nil {
				return err
			}
			api, err := client.NewFromConfig(cfg.Backend, logger)
			if err != nil {
				return err
			}
			a.api, a.logger = api, logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "ticket API base URL (default from TICKET_API_BASE_URL)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default error)")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.editCmd(),
		a.statusCmd(),
	)
	return root
}

// newCLILogger keeps the terminal quiet unless a level was asked for.
func newCLILogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	if cfg.Level == "" || cfg.Level == "info" {
		cfg.Level = "error"
	}
	return observability.NewLogger(cfg)
}
