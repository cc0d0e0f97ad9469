package client

import (
	"errors"
	"time"

	"babis/internal/domain/roster"
)

// Kind constants
const (
	KindPrivate       = "private"
	KindInstitutional = "institutional"
)

// Field names used by the add/update forms and spreadsheets.
const (
	FieldName          = "שם"
	FieldOrganization  = "גוף"
	FieldOrgAlias      = "ארגון"
	FieldContactPerson = "איש קשר"
	FieldPhone         = "טלפון"
	FieldEmail         = "מייל"
	FieldSpecialNeed   = "צורך מיוחד"
	FieldNotes         = "הערות"
	FieldStatus        = "פעיל"
)

// Domain errors
var (
	ErrInvalidKind = errors.New("kind must be 'private' or 'institutional'")
)

// Client holds state for the concept. Name is the person for private
// clients and the organization for institutional ones.
type Client struct {
	ID            string
	Kind          string
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	SpecialNeed   string
	Notes         string
	Active        bool
	CreatedAt     time.Time
}

// ValidKind reports whether k names a client table.
func ValidKind(k string) bool {
	return k == KindPrivate || k == KindInstitutional
}

// Columns returns the column labels of a client table in display order.
func Columns(kind string) []string {
	if kind == KindInstitutional {
		return []string{FieldOrganization, FieldContactPerson, FieldPhone, FieldEmail, FieldNotes}
	}
	return []string{FieldName, FieldPhone, FieldEmail, FieldSpecialNeed, FieldNotes}
}

// Validate checks if the Client has valid data.
// PRE: Client struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (c *Client) Validate() error {
	if !ValidKind(c.Kind) {
		return ErrInvalidKind
	}
	if err := roster.ValidateName(c.Name); err != nil {
		return err
	}
	return roster.ValidateEmail(c.Email)
}

// Cells returns the row texts in Columns(c.Kind) order.
func (c Client) Cells() []string {
	if c.Kind == KindInstitutional {
		return []string{c.Name, c.ContactPerson, c.Phone, c.Email, c.Notes}
	}
	return []string{c.Name, c.Phone, c.Email, c.SpecialNeed, c.Notes}
}

// Fields returns the record keyed by form field name, status included.
func (c Client) Fields() map[string]string {
	f := map[string]string{
		FieldPhone:  c.Phone,
		FieldEmail:  c.Email,
		FieldNotes:  c.Notes,
		FieldStatus: roster.StatusText(c.Active),
	}
	if c.Kind == KindInstitutional {
		f[FieldOrganization] = c.Name
		f[FieldContactPerson] = c.ContactPerson
	} else {
		f[FieldName] = c.Name
		f[FieldSpecialNeed] = c.SpecialNeed
	}
	return f
}

// Apply overwrites the editable fields from a form record.
// Institutional records accept either "גוף" or "ארגון" for the organization.
func (c *Client) Apply(fields map[string]string) {
	if c.Kind == KindInstitutional {
		c.Name = fields[FieldOrganization]
		if c.Name == "" {
			c.Name = fields[FieldOrgAlias]
		}
		c.ContactPerson = fields[FieldContactPerson]
	} else {
		c.Name = fields[FieldName]
		c.SpecialNeed = fields[FieldSpecialNeed]
	}
	c.Phone = fields[FieldPhone]
	c.Email = fields[FieldEmail]
	c.Notes = fields[FieldNotes]
	c.Active = roster.ParseStatus(fields[FieldStatus])
}
