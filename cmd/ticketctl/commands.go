package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/lifecycle"
	"github.com/deskops/ticket-desk/internal/listquery"
	"github.com/deskops/ticket-desk/internal/service"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

func (a *app) listCmd() *cobra.Command {
	var status, sortBy, sortOrder string
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets, five per page",
		Long: `List tickets filtered by status and sorted locally.

Examples:
  ticketctl list
  ticketctl list --status pending --sort-by title --sort-order asc
  ticketctl list --sort-by created_at --page 2
  ticketctl list --sort-by created_at --sort-order desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := domain.ParseStatusFilter(status)
			if err != nil {
				return apperrors.NewValidationError(err.Error(), nil)
			}
			engine := listquery.NewEngine(a.api, listquery.WithLogger(a.logger))
			if err := engine.SetStatusFilter(cmd.Context(), filter); err != nil {
				return err
			}
			// the field goes first so an explicit order wins over its default
			if sortBy != "" {
				field, err := domain.ParseSortField(sortBy)
				if err != nil {
					return apperrors.NewValidationError(err.Error(), nil)
				}
				if err := engine.SetSortField(field); err != nil {
					return err
				}
			}
			if sortOrder != "" {
				if err := engine.SetSortOrder(domain.SortOrder(sortOrder)); err != nil {
					return err
				}
			}
			engine.GoToPage(page)
			renderPage(cmd.OutOrStdout(), engine.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "status filter: all, pending, accepted, resolved, rejected")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "sort field: updated_at, created_at, title")
	cmd.Flags().StringVar(&sortOrder, "sort-order", "", "sort order: asc, desc")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			record, _ := controller.Record()
			renderTicket(cmd.OutOrStdout(), record)
			return nil
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var input domain.NewTicket

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket; it starts as pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tickets := service.NewTicketService(a.api, nil, a.logger)
			ticket, err := tickets.CreateTicket(cmd.Context(), input)
			if err != nil {
				return err
			}
			renderTicket(cmd.OutOrStdout(), ticket)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "ticket title")
	cmd.Flags().StringVar(&input.Description, "description", "", "ticket description")
	cmd.Flags().StringVar(&input.Contact.Name, "name", "", "contact name")
	cmd.Flags().StringVar(&input.Contact.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&input.Contact.Phone, "phone", "", "contact phone")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var title, description, name, email, phone string

	cmd := &cobra.Command{
		Use:   "edit <ticket-id>",
		Short: "Edit title, description or contact of a ticket",
		Long: `Edit a ticket. Only the flags given are changed; the rest of the
ticket is saved as loaded.

Example:
  ticketctl edit 42 --title "Printer on fire" --email ops@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := controller.BeginEdit(); err != nil {
				return err
			}
			edits := []struct {
				flag  string
				apply func() error
			}{
				{"title", func() error { return controller.UpdateDraftField(lifecycle.FieldTitle, title) }},
				{"description", func() error { return controller.UpdateDraftField(lifecycle.FieldDescription, description) }},
				{"name", func() error { return controller.UpdateDraftContactField(lifecycle.ContactName, name) }},
				{"email", func() error { return controller.UpdateDraftContactField(lifecycle.ContactEmail, email) }},
				{"phone", func() error { return controller.UpdateDraftContactField(lifecycle.ContactPhone, phone) }},
			}
			changed := 0
			for _, edit := range edits {
				if !cmd.Flags().Changed(edit.flag) {
					continue
				}
				if err := edit.apply(); err != nil {
					return err
				}
				changed++
			}
			if changed == 0 {
				return apperrors.NewValidationError("nothing to change; pass at least one field flag", nil)
			}
			if err := controller.Save(cmd.Context()); err != nil {
				return err
			}
			record, _ := controller.Record()
			renderTicket(cmd.OutOrStdout(), record)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&name, "name", "", "new contact name")
	cmd.Flags().StringVar(&email, "email", "", "new contact email")
	cmd.Flags().StringVar(&phone, "phone", "", "new contact phone")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <ticket-id> <pending|accepted|resolved|rejected>",
		Short: "Move a ticket to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseTicketStatus(args[1])
			if err != nil {
				return apperrors.NewValidationError(err.Error(), nil)
			}
			controller, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := controller.SetStatus(cmd.Context(), status); err != nil {
				return err
			}
			record, _ := controller.Record()
			renderTicket(cmd.OutOrStdout(), record)
			return nil
		},
	}
}

func (a *app) load(ctx context.Context, rawID string) (*lifecycle.Controller, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, apperrors.NewValidationError("ticket id required", nil)
	}
	controller := lifecycle.NewController(a.api, lifecycle.WithLogger(a.logger))
	if err := controller.Load(ctx, domain.TicketID(rawID)); err != nil {
		return nil, err
	}
	return controller, nil
}
