package domain

import (
	"net/mail"
	"strings"

	apperrors "github.com/deskops/ticket-desk/pkg/util/errorutil"
)

// validate records contact problems keyed by wire field name.
func (c Contact) validate(problems map[string]any) {
	if strings.TrimSpace(c.Name) == "" {
		problems["contact_name"] = "required"
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		problems["contact_email"] = "required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		problems["contact_email"] = "invalid email address"
	}
}

func validateText(title, description string, problems map[string]any) {
	if strings.TrimSpace(title) == "" {
		problems["title"] = "required"
	}
	if strings.TrimSpace(description) == "" {
		problems["description"] = "required"
	}
}

// Validate reports missing or malformed fields of a draft before it is saved.
func (t Ticket) Validate() error {
	problems := map[string]any{}
	validateText(t.Title, t.Description, problems)
	t.Contact.validate(problems)
	if !t.Status.Valid() {
		problems["status"] = "unknown status"
	}
	if len(problems) > 0 {
		return apperrors.NewValidationError("ticket is incomplete", problems)
	}
	return nil
}

// Validate reports missing or malformed fields of a creation payload.
func (t NewTicket) Validate() error {
	problems := map[string]any{}
	validateText(t.Title, t.Description, problems)
	t.Contact.validate(problems)
	if len(problems) > 0 {
		return apperrors.NewValidationError("ticket is incomplete", problems)
	}
	return nil
}
