package wizard

import (
	"strings"
	"time"

	"karenta/internal/models"
)

type FieldKind string

const (
	KindText    FieldKind = "text"
	KindNumber  FieldKind = "number"
	KindDate    FieldKind = "date"
	KindBoolean FieldKind = "boolean"
	KindSelect  FieldKind = "select"
)

// Field is one tagged entry in a wizard's form schema. The schema drives
// both validation and the field list the API exposes per step.
type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	MinLen   int       `json:"min_len,omitempty"`
	Positive bool      `json:"positive,omitempty"`
	Options  []string  `json:"options,omitempty"`
}

// Valid checks the field's value in the session form. Optional fields pass
// when absent; everything else is a presence or format check.
func (f Field) Valid(session *models.WizardSession) bool {
	raw, ok := session.Form[f.Name]
	if !ok || raw == nil {
		return !f.Required
	}

	switch f.Kind {
	case KindText:
		s := strings.TrimSpace(session.GetString(f.Name))
		if s == "" {
			return !f.Required
		}
		return len(s) >= f.MinLen
	case KindNumber:
		if f.Positive {
			return session.GetInt64(f.Name) > 0
		}
		return true
	case KindDate:
		t := session.GetTime(f.Name)
		return !t.IsZero()
	case KindBoolean:
		// Presence alone satisfies a boolean field.
		return true
	case KindSelect:
		v := session.GetString(f.Name)
		if v == "" {
			return !f.Required
		}
		for _, opt := range f.Options {
			if v == opt {
				return true
			}
		}
		return false
	}
	return false
}

// dateOrdered reports whether the "from" date is on or before the "to"
// date. Missing values pass here so presence checks stay with the fields.
func dateOrdered(session *models.WizardSession, fromField, toField string) bool {
	from := session.GetTime(fromField)
	to := session.GetTime(toField)
	if from.IsZero() || to.IsZero() {
		return true
	}
	return !to.Before(from)
}

// futureOrToday rejects dates in the past. Today counts as valid so a
// same-day pickup can still be booked.
func futureOrToday(t time.Time, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !t.Before(today)
}
