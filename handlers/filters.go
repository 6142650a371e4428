// ABOUTME: Tool-facing filter arguments and their conversion to engine filters
// ABOUTME: Presets are applied first and explicit arguments override them
package handlers

import (
	"fmt"
	"time"

	"github.com/harperreed/leadbook/models"
)

const dateLayout = "2006-01-02"

// FilterInput mirrors models.Filters with string dates.
type FilterInput struct {
	Preset        string   `json:"preset,omitempty" form:"preset" jsonschema:"Name of a saved filter preset; other fields override it"`
	Search        string   `json:"search,omitempty" form:"search" jsonschema:"Accent-insensitive text search over name, email, company and notes"`
	Origin        string   `json:"origin,omitempty" form:"origin" jsonschema:"Lead source: valuation, contact, collaborator, acquisition, inquiry, general or advisor" validate:"omitempty,oneof=valuation contact collaborator acquisition inquiry general advisor"`
	Status        string   `json:"status,omitempty" form:"status" jsonschema:"Status or CRM status (case-insensitive)"`
	Priority      string   `json:"priority,omitempty" form:"priority" jsonschema:"hot, warm or cold" validate:"omitempty,oneof=hot warm cold"`
	EmailStatus   string   `json:"email_status,omitempty" form:"email_status" jsonschema:"sent, opened, not_sent or sent_not_opened" validate:"omitempty,oneof=sent opened not_sent sent_not_opened"`
	UTMSource     string   `json:"utm_source,omitempty" form:"utm_source" jsonschema:"UTM source"`
	Budget        string   `json:"budget,omitempty" form:"budget" jsonschema:"Investment budget band"`
	Sector        string   `json:"sector,omitempty" form:"sector" jsonschema:"Sector"`
	CompanySize   string   `json:"company_size,omitempty" form:"company_size" jsonschema:"Employee range label, e.g. 11-50"`
	Location      string   `json:"location,omitempty" form:"location" jsonschema:"Preferred location"`
	ChannelID     string   `json:"channel_id,omitempty" form:"channel_id" jsonschema:"Acquisition channel ID"`
	LeadFormID    string   `json:"lead_form_id,omitempty" form:"lead_form_id" jsonschema:"Lead form ID"`
	ValuationType string   `json:"valuation_type,omitempty" form:"valuation_type" jsonschema:"Valuation type"`
	DateFrom      string   `json:"date_from,omitempty" form:"date_from" jsonschema:"Earliest creation date (YYYY-MM-DD, inclusive)" validate:"omitempty,datetime=2006-01-02"`
	DateTo        string   `json:"date_to,omitempty" form:"date_to" jsonschema:"Latest creation date (YYYY-MM-DD, inclusive)" validate:"omitempty,datetime=2006-01-02"`
	RevenueMin    *float64 `json:"revenue_min,omitempty" form:"revenue_min" jsonschema:"Minimum revenue" validate:"omitempty,gte=0"`
	RevenueMax    *float64 `json:"revenue_max,omitempty" form:"revenue_max" jsonschema:"Maximum revenue" validate:"omitempty,gte=0"`
	EBITDAMin     *float64 `json:"ebitda_min,omitempty" form:"ebitda_min" jsonschema:"Minimum EBITDA"`
	EBITDAMax     *float64 `json:"ebitda_max,omitempty" form:"ebitda_max" jsonschema:"Maximum EBITDA"`
	EmployeesMin  *int     `json:"employees_min,omitempty" form:"employees_min" jsonschema:"Minimum employees" validate:"omitempty,gte=0"`
	EmployeesMax  *int     `json:"employees_max,omitempty" form:"employees_max" jsonschema:"Maximum employees" validate:"omitempty,gte=0"`
	UniqueOnly    bool     `json:"unique_only,omitempty" form:"unique_only" jsonschema:"Keep only the newest record per email"`
	RepeatedOnly  bool     `json:"repeated_only,omitempty" form:"repeated_only" jsonschema:"Keep only records whose email appears more than once"`
}

func (in FilterInput) toFilters() (models.Filters, error) {
	f := models.Filters{
		Search:        in.Search,
		Origin:        models.Origin(in.Origin),
		Status:        in.Status,
		Priority:      models.Priority(in.Priority),
		EmailStatus:   models.EmailStatus(in.EmailStatus),
		UTMSource:     in.UTMSource,
		Budget:        in.Budget,
		Sector:        in.Sector,
		CompanySize:   in.CompanySize,
		Location:      in.Location,
		ChannelID:     in.ChannelID,
		LeadFormID:    in.LeadFormID,
		ValuationType: in.ValuationType,
		RevenueMin:    in.RevenueMin,
		RevenueMax:    in.RevenueMax,
		EBITDAMin:     in.EBITDAMin,
		EBITDAMax:     in.EBITDAMax,
		EmployeesMin:  in.EmployeesMin,
		EmployeesMax:  in.EmployeesMax,
		UniqueOnly:    in.UniqueOnly,
		RepeatedOnly:  in.RepeatedOnly,
	}
	if in.DateFrom != "" {
		from, err := time.Parse(dateLayout, in.DateFrom)
		if err != nil {
			return f, fmt.Errorf("invalid date_from: %w", err)
		}
		f.DateFrom = &from
	}
	if in.DateTo != "" {
		to, err := time.Parse(dateLayout, in.DateTo)
		if err != nil {
			return f, fmt.Errorf("invalid date_to: %w", err)
		}
		// Whole day inclusive.
		to = to.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &to
	}
	return f, nil
}
