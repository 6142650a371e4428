// ABOUTME: Export projector flattening a view into one CSV sheet
// ABOUTME: Adds per-identity aggregates computed across every occurrence of the identity
package unify

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/harperreed/leadbook/models"
)

// ExportColumns is the fixed header of the export sheet.
var ExportColumns = []string{
	"key", "origin", "name", "email", "phone", "company",
	"status", "crm_status", "priority", "assigned_to",
	"sector", "employee_range", "revenue", "ebitda", "final_valuation",
	"utm_source", "acquisition_channel", "lead_form",
	"email_sent", "email_opened", "created_at",
	"occurrence_count", "first_seen", "last_seen",
	"min_value", "max_value", "avg_value",
}

// identityAggregate summarizes every occurrence of one identity.
type identityAggregate struct {
	count     int
	firstSeen time.Time
	lastSeen  time.Time
	values    int
	min, max  float64
	sum       float64
}

func (a *identityAggregate) add(c models.Contact) {
	if a.count == 0 || c.CreatedAt.Before(a.firstSeen) {
		a.firstSeen = c.CreatedAt
	}
	if a.count == 0 || c.CreatedAt.After(a.lastSeen) {
		a.lastSeen = c.CreatedAt
	}
	a.count++

	v := c.MonetaryValue()
	if v == nil {
		return
	}
	if a.values == 0 || *v < a.min {
		a.min = *v
	}
	if a.values == 0 || *v > a.max {
		a.max = *v
	}
	a.sum += *v
	a.values++
}

func aggregateIdentities(all []models.Contact) map[string]*identityAggregate {
	aggs := make(map[string]*identityAggregate)
	for _, c := range all {
		id := c.IdentityKey()
		agg, ok := aggs[id]
		if !ok {
			agg = &identityAggregate{}
			aggs[id] = agg
		}
		agg.add(c)
	}
	return aggs
}

// ExportRows projects view into string rows under ExportColumns. Aggregates
// are computed over all, which should be the unfiltered stream; nil means view.
func ExportRows(view, all []models.Contact) [][]string {
	if all == nil {
		all = view
	}
	aggs := aggregateIdentities(all)

	rows := make([][]string, 0, len(view))
	for _, c := range view {
		agg, ok := aggs[c.IdentityKey()]
		if !ok {
			agg = &identityAggregate{}
			agg.add(c)
		}
		crm := ""
		if c.CRMStatus != nil {
			crm = string(*c.CRMStatus)
		}
		row := []string{
			c.Key().String(), string(c.Origin), c.Name, c.Email, c.Phone, c.Company,
			c.Status, crm, string(c.Priority), c.AssignedToName,
			c.Sector, c.EmployeeRange, formatMoney(c.Revenue), formatMoney(c.EBITDA), formatMoney(c.FinalValuation),
			c.UTMSource, c.AcquisitionChannelName, c.LeadFormName,
			strconv.FormatBool(c.EmailSent), strconv.FormatBool(c.EmailOpened), formatTime(c.CreatedAt),
			strconv.Itoa(agg.count), formatTime(agg.firstSeen), formatTime(agg.lastSeen),
		}
		if agg.values > 0 {
			avg := agg.sum / float64(agg.values)
			row = append(row, formatMoney(&agg.min), formatMoney(&agg.max), formatMoney(&avg))
		} else {
			row = append(row, "", "", "")
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the header and one row per contact in view.
func WriteCSV(w io.Writer, view, all []models.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	if err := cw.WriteAll(ExportRows(view, all)); err != nil {
		return fmt.Errorf("failed to write export rows: %w", err)
	}
	return nil
}

func formatMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
