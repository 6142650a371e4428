// ABOUTME: Filter options and aggregate statistics for the unified contact view
// ABOUTME: Both are value objects recomputed from the current stream on every change
package models

import "time"

// EmailStatus constrains records by email engagement.
type EmailStatus string

const (
	EmailStatusSent          EmailStatus = "sent"
	EmailStatusOpened        EmailStatus = "opened"
	EmailStatusNotSent       EmailStatus = "not_sent"
	EmailStatusSentNotOpened EmailStatus = "sent_not_opened"
)

// Filters is the flat options object driving the filter engine.
// Every field is optional; the zero value means "no constraint".
type Filters struct {
	Search        string      `json:"search,omitempty" yaml:"search,omitempty"`
	Origin        Origin      `json:"origin,omitempty" yaml:"origin,omitempty"`
	Status        string      `json:"status,omitempty" yaml:"status,omitempty"`
	Priority      Priority    `json:"priority,omitempty" yaml:"priority,omitempty"`
	EmailStatus   EmailStatus `json:"email_status,omitempty" yaml:"email_status,omitempty"`
	UTMSource     string      `json:"utm_source,omitempty" yaml:"utm_source,omitempty"`
	Budget        string      `json:"budget,omitempty" yaml:"budget,omitempty"`
	Sector        string      `json:"sector,omitempty" yaml:"sector,omitempty"`
	CompanySize   string      `json:"company_size,omitempty" yaml:"company_size,omitempty"`
	Location      string      `json:"location,omitempty" yaml:"location,omitempty"`
	ChannelID     string      `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	LeadFormID    string      `json:"lead_form_id,omitempty" yaml:"lead_form_id,omitempty"`
	ValuationType string      `json:"valuation_type,omitempty" yaml:"valuation_type,omitempty"`

	DateFrom *time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty" yaml:"date_to,omitempty"`

	RevenueMin   *float64 `json:"revenue_min,omitempty" yaml:"revenue_min,omitempty"`
	RevenueMax   *float64 `json:"revenue_max,omitempty" yaml:"revenue_max,omitempty"`
	EBITDAMin    *float64 `json:"ebitda_min,omitempty" yaml:"ebitda_min,omitempty"`
	EBITDAMax    *float64 `json:"ebitda_max,omitempty" yaml:"ebitda_max,omitempty"`
	EmployeesMin *int     `json:"employees_min,omitempty" yaml:"employees_min,omitempty"`
	EmployeesMax *int     `json:"employees_max,omitempty" yaml:"employees_max,omitempty"`

	UniqueOnly   bool `json:"unique_only,omitempty" yaml:"unique_only,omitempty"`
	RepeatedOnly bool `json:"repeated_only,omitempty" yaml:"repeated_only,omitempty"`
}

// Merge returns f with every set field of override applied on top.
func (f Filters) Merge(override Filters) Filters {
	out := f
	setString(&out.Search, override.Search)
	if override.Origin != "" {
		out.Origin = override.Origin
	}
	setString(&out.Status, override.Status)
	if override.Priority != "" {
		out.Priority = override.Priority
	}
	if override.EmailStatus != "" {
		out.EmailStatus = override.EmailStatus
	}
	setString(&out.UTMSource, override.UTMSource)
	setString(&out.Budget, override.Budget)
	setString(&out.Sector, override.Sector)
	setString(&out.CompanySize, override.CompanySize)
	setString(&out.Location, override.Location)
	setString(&out.ChannelID, override.ChannelID)
	setString(&out.LeadFormID, override.LeadFormID)
	setString(&out.ValuationType, override.ValuationType)
	if override.DateFrom != nil {
		out.DateFrom = override.DateFrom
	}
	if override.DateTo != nil {
		out.DateTo = override.DateTo
	}
	if override.RevenueMin != nil {
		out.RevenueMin = override.RevenueMin
	}
	if override.RevenueMax != nil {
		out.RevenueMax = override.RevenueMax
	}
	if override.EBITDAMin != nil {
		out.EBITDAMin = override.EBITDAMin
	}
	if override.EBITDAMax != nil {
		out.EBITDAMax = override.EBITDAMax
	}
	if override.EmployeesMin != nil {
		out.EmployeesMin = override.EmployeesMin
	}
	if override.EmployeesMax != nil {
		out.EmployeesMax = override.EmployeesMax
	}
	out.UniqueOnly = out.UniqueOnly || override.UniqueOnly
	out.RepeatedOnly = out.RepeatedOnly || override.RepeatedOnly
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Stats are aggregate counters over whatever view is currently active.
type Stats struct {
	Total          int            `json:"total"`
	UniqueContacts int            `json:"unique_contacts"`
	Hot            int            `json:"hot"`
	Warm           int            `json:"warm"`
	Cold           int            `json:"cold"`
	Qualified      int            `json:"qualified"`
	EmailsSent     int            `json:"emails_sent"`
	EmailsOpened   int            `json:"emails_opened"`
	ByOrigin       map[Origin]int `json:"by_origin"`
	TotalValuation float64        `json:"total_valuation"`
	TotalRevenue   float64        `json:"total_revenue"`
	OpenRate       float64        `json:"open_rate"`
	QualifiedRate  float64        `json:"qualified_rate"`
}
