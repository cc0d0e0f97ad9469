package instructor

import (
	"time"

	"babis/internal/domain/roster"
)

// Column labels in display order.
var Columns = []string{"שם", "טלפון", "מייל", "התמחויות", "הערות"}

// Field names used by the add/update forms and spreadsheets.
const (
	FieldName      = "שם"
	FieldPhone     = "טלפון"
	FieldEmail     = "מייל"
	FieldExpertise = "התמחויות"
	FieldNotes     = "הערות"
	FieldStatus    = "פעיל"
)

// Instructor holds state for the concept.
type Instructor struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Expertise string
	Notes     string
	Active    bool
	CreatedAt time.Time
}

// Validate checks if the Instructor has valid data.
// PRE: Instructor struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (i *Instructor) Validate() error {
	if err := roster.ValidateName(i.Name); err != nil {
		return err
	}
	return roster.ValidateEmail(i.Email)
}

// Cells returns the row texts in Columns order.
func (i Instructor) Cells() []string {
	return []string{i.Name, i.Phone, i.Email, i.Expertise, i.Notes}
}

// Fields returns the record keyed by form field name, status included.
func (i Instructor) Fields() map[string]string {
	return map[string]string{
		FieldName:      i.Name,
		FieldPhone:     i.Phone,
		FieldEmail:     i.Email,
		FieldExpertise: i.Expertise,
		FieldNotes:     i.Notes,
		FieldStatus:    roster.StatusText(i.Active),
	}
}

// Apply overwrites the editable fields from a form record.
// Missing keys clear the field, matching a full-row update.
func (i *Instructor) Apply(fields map[string]string) {
	i.Name = fields[FieldName]
	i.Phone = fields[FieldPhone]
	i.Email = fields[FieldEmail]
	i.Expertise = fields[FieldExpertise]
	i.Notes = fields[FieldNotes]
	i.Active = roster.ParseStatus(fields[FieldStatus])
}
