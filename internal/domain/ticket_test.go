package domain

import (
	"encoding/json"
	"testing"

	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

func TestTicketDecodesFlatWireShape(t *testing.T) {
	raw := `{
		"id": 42,
		"title": "Printer jam",
		"description": "Tray 2",
		"contact_name": "Sam",
		"contact_email": "sam@example.com",
		"contact_phone": "",
		"status": "accepted",
		"created_at": "2024-01-02T03:04:05Z",
		"updated_at": "2024-01-03T03:04:05Z"
	}`
	var ticket Ticket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ticket.ID != "42" {
		t.Errorf("ID = %q, want 42", ticket.ID)
	}
	if ticket.Contact.Email != "sam@example.com" || ticket.Contact.Name != "Sam" {
		t.Errorf("contact = %+v", ticket.Contact)
	}
	if ticket.Status != TicketStatusAccepted {
		t.Errorf("Status = %q", ticket.Status)
	}
	if !ticket.UpdatedAt.After(ticket.CreatedAt) {
		t.Errorf("timestamps not decoded: %v %v", ticket.CreatedAt, ticket.UpdatedAt)
	}
}

func TestTicketIDAcceptsStrings(t *testing.T) {
	var id TicketID
	if err := json.Unmarshal([]byte(`"b2c1-77"`), &id); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if id != "b2c1-77" {
		t.Errorf("id = %q", id)
	}
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("expected error for object id")
	}
}

func TestNewTicketOmitsStatus(t *testing.T) {
	body, err := json.Marshal(NewTicket{Title: "t", Description: "d", Contact: Contact{Name: "n", Email: "e@example.com"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["status"]; ok {
		t.Errorf("creation payload carries status: %s", body)
	}
	if fields["contact_email"] != "e@example.com" {
		t.Errorf("contact not flattened: %s", body)
	}
}

func TestValidate(t *testing.T) {
	valid := Ticket{
		Title:       "t",
		Description: "d",
		Contact:     Contact{Name: "n", Email: "n@example.com"},
		Status:      TicketStatusPending,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid ticket rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Ticket)
		field  string
	}{
		{"blank title", func(t *Ticket) { t.Title = "  " }, "title"},
		{"blank description", func(t *Ticket) { t.Description = "" }, "description"},
		{"blank contact name", func(t *Ticket) { t.Contact.Name = "" }, "contact_name"},
		{"missing email", func(t *Ticket) { t.Contact.Email = "" }, "contact_email"},
		{"malformed email", func(t *Ticket) { t.Contact.Email = "not-an-address" }, "contact_email"},
		{"display name email", func(t *Ticket) { t.Contact.Email = "Sam <sam@example.com>" }, "contact_email"},
		{"unknown status", func(t *Ticket) { t.Status = "closed" }, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := valid
			tt.mutate(&ticket)
			err := ticket.Validate()
			if !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
				t.Fatalf("err = %v, want validation failure", err)
			}
			details := apperrors.ToDomainError(err).Details
			if _, ok := details[tt.field]; !ok {
				t.Errorf("details %v missing %s", details, tt.field)
			}
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	for _, raw := range []string{"", "all"} {
		filter, err := ParseStatusFilter(raw)
		if err != nil || filter != StatusFilterAll {
			t.Errorf("ParseStatusFilter(%q) = %q, %v", raw, filter, err)
		}
		if _, ok := filter.Status(); ok {
			t.Errorf("all filter reports a concrete status")
		}
	}
	filter, err := ParseStatusFilter("resolved")
	if err != nil {
		t.Fatalf("ParseStatusFilter: %v", err)
	}
	if status, ok := filter.Status(); !ok || status != TicketStatusResolved {
		t.Errorf("Status() = %q, %v", status, ok)
	}
	if _, err := ParseStatusFilter("closed"); err == nil {
		t.Error("expected error for unknown status")
	}
}
