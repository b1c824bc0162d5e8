package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/deskops/ticket-desk/internal/domain"
	"github.com/deskops/ticket-desk/internal/listquery"
	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

const timeLayout = "2006-01-02 15:04"

var statusColors = map[domain.TicketStatus]*color.Color{
	domain.TicketStatusPending:  color.New(color.FgYellow),
	domain.TicketStatusAccepted: color.New(color.FgBlue),
	domain.TicketStatusResolved: color.New(color.FgGreen),
	domain.TicketStatusRejected: color.New(color.FgRed),
}

func colorStatus(status domain.TicketStatus) string {
	if c, ok := statusColors[status]; ok {
		return c.Sprint(string(status))
	}
	return string(status)
}

func renderPage(w io.Writer, page listquery.Page) {
	if page.Err != nil {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed).Sprint("!"), apperrors.UserMessage(page.Err))
	}
	if page.Total == 0 {
		fmt.Fprintln(w, "no tickets")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tCONTACT\tUPDATED")
	for _, t := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, colorStatus(t.Status), t.Title, t.Contact.Email, t.UpdatedAt.Format(timeLayout))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "page %d/%d, %d tickets, status=%s, sorted by %s %s\n",
		page.Page, page.PageCount, page.Total, page.Status, page.Sort.Field, page.Sort.Order)
}

func renderTicket(w io.Writer, t domain.Ticket) {
	fmt.Fprintf(w, "#%s %s [%s]\n", t.ID, t.Title, colorStatus(t.Status))
	fmt.Fprintf(w, "  contact: %s <%s>", t.Contact.Name, t.Contact.Email)
	if t.Contact.Phone != "" {
		fmt.Fprintf(w, " %s", t.Contact.Phone)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  created: %s  updated: %s\n", t.CreatedAt.Format(timeLayout), t.UpdatedAt.Format(timeLayout))
	fmt.Fprintf(w, "\n%s\n", t.Description)
}
