// ABOUTME: Write-side translation from canonical patches to native column updates
// ABOUTME: Uses the same column table as the read-side adapters
package sources

import (
	"fmt"

	"github.com/harperreed/leadbook/models"
)

// Translate converts a canonical patch into native column values for this source.
// AssignedToName is display-only and never translated.
func (m ColumnMap) Translate(p models.ContactPatch) (map[string]any, error) {
	cols := make(map[string]any)

	set := func(field, col string, value any) error {
		if col == "" {
			return fmt.Errorf("%w: %s on %s", ErrFieldNotMapped, field, m.Table)
		}
		cols[col] = value
		return nil
	}

	type entry struct {
		field string
		col   string
		value any
		ok    bool
	}
	entries := []entry{
		{"name", m.Name, deref(p.Name), p.Name != nil},
		{"email", m.Email, deref(p.Email), p.Email != nil},
		{"phone", m.Phone, deref(p.Phone), p.Phone != nil},
		{"company", m.Company, deref(p.Company), p.Company != nil},
		{"sector", m.Sector, deref(p.Sector), p.Sector != nil},
		{"status", m.Status, deref(p.Status), p.Status != nil},
		{"email_sent", m.EmailSent, deref(p.EmailSent), p.EmailSent != nil},
		{"email_opened", m.EmailOpened, deref(p.EmailOpened), p.EmailOpened != nil},
		{"is_deleted", m.Deleted, deref(p.Deleted), p.Deleted != nil},
	}
	if p.CRMStatus != nil {
		entries = append(entries, entry{"crm_status", m.CRMStatus, string(*p.CRMStatus), true})
	}
	if p.AssignedTo != nil {
		var owner any
		if *p.AssignedTo != "" {
			owner = *p.AssignedTo
		}
		entries = append(entries, entry{"assigned_to", m.AssignedTo, owner, true})
	}

	for _, e := range entries {
		if !e.ok {
			continue
		}
		if err := set(e.field, e.col, e.value); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// TranslateFor looks up the origin's columns and translates the patch.
func TranslateFor(origin models.Origin, p models.ContactPatch) (ColumnMap, map[string]any, error) {
	m, err := Columns(origin)
	if err != nil {
		return ColumnMap{}, nil, err
	}
	cols, err := m.Translate(p)
	if err != nil {
		return ColumnMap{}, nil, err
	}
	return m, cols, nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
