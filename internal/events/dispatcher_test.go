package events

import (
	"context"
	"errors"
	"testing"

	"github.com/deskops/ticket-desk/internal/domain"
)

func TestPublishFillsIdentityAndContinuesPastFailures(t *testing.T) {
	dispatcher := NewInMemoryDispatcher(nil)

	var seen []Event
	dispatcher.Subscribe(EventTicketStatusChanged, func(ctx context.Context, event Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventTicketStatusChanged, func(ctx context.Context, event Event) error {
		seen = append(seen, event)
		return nil
	})
	dispatcher.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		t.Error("created handler must not run for status events")
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventTicketStatusChanged, TicketID: "7"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("second handler ran %d times, want 1", len(seen))
	}
	if seen[0].ID == "" || seen[0].Timestamp.IsZero() {
		t.Errorf("event identity not filled: %+v", seen[0])
	}
}

func TestDiffTickets(t *testing.T) {
	before := domain.Ticket{Title: "A", Description: "d", Contact: domain.Contact{Name: "n", Email: "a@example.com"}}
	after := before
	after.Title = "B"
	after.Contact.Phone = "555"

	changed := DiffTickets(before, after)
	if len(changed) != 2 {
		t.Fatalf("changed = %v, want title and contact_phone", changed)
	}
	if changed["title"] != (FieldChange{Old: "A", New: "B"}) {
		t.Errorf("title change = %+v", changed["title"])
	}
	if changed["contact_phone"] != (FieldChange{Old: "", New: "555"}) {
		t.Errorf("phone change = %+v", changed["contact_phone"])
	}
}
