// ABOUTME: The single origin -> native column table for all seven lead sources
// ABOUTME: Consumed by the read-side adapters, the SQL reader and the write-side patch translator
package sources

import (
	"errors"
	"fmt"

	"github.com/harperreed/leadbook/models"
)

var ErrFieldNotMapped = errors.New("field not mapped for origin")

// Aliases for joined lookup columns added by the datastore reader.
const (
	LookupCompanyName     = "lk_company_name"
	LookupCompanyRevenue  = "lk_company_revenue"
	LookupChannelName     = "lk_channel_name"
	LookupChannelCategory = "lk_channel_category"
	LookupFormName        = "lk_form_name"
)

// ColumnMap names the native column behind each canonical field. An empty
// name means the source does not carry that field.
type ColumnMap struct {
	Table     string
	ID        string
	CreatedAt string
	Deleted   string

	Name       string
	Email      string
	Phone      string
	Company    string
	Status     string
	CRMStatus  string
	AssignedTo string

	Sector            string
	EmployeeRange     string
	Revenue           string
	EBITDA            string
	FinalValuation    string
	ValuationType     string
	InvestmentBudget  string
	PreferredLocation string
	Message           string
	ServiceType       string
	Profession        string
	UTMSource         string

	CompanyFK string
	ChannelFK string
	FormFK    string

	EmailSent     string
	EmailOpened   string
	HubspotSynced string
	BrevoSynced   string
}

func base(table string) ColumnMap {
	return ColumnMap{
		Table:      table,
		ID:         "id",
		CreatedAt:  "created_at",
		Deleted:    "is_deleted",
		Email:      "email",
		Phone:      "phone",
		Status:     "status",
		AssignedTo: "assigned_to",
	}
}

var columnMaps = map[models.Origin]ColumnMap{
	models.OriginValuation: func() ColumnMap {
		m := base("valuation_leads")
		m.Name = "contact_name"
		m.Company = "company_name"
		m.CRMStatus = "crm_status"
		m.Sector = "industry"
		m.EmployeeRange = "employee_range"
		m.Revenue = "revenue"
		m.EBITDA = "ebitda"
		m.FinalValuation = "final_valuation"
		m.ValuationType = "valuation_type"
		m.PreferredLocation = "location"
		m.UTMSource = "utm_source"
		m.CompanyFK = "company_id"
		m.ChannelFK = "acquisition_channel_id"
		m.FormFK = "lead_form_id"
		m.EmailSent = "email_sent"
		m.EmailOpened = "email_opened"
		m.HubspotSynced = "hubspot_sent"
		m.BrevoSynced = "brevo_sent"
		return m
	}(),
	models.OriginContact: func() ColumnMap {
		m := base("contact_leads")
		m.Name = "full_name"
		m.Company = "company"
		m.CRMStatus = "crm_status"
		m.Sector = "sector"
		m.EmployeeRange = "company_size"
		m.Revenue = "annual_revenue"
		m.Message = "message"
		m.UTMSource = "utm_source"
		m.CompanyFK = "company_id"
		m.ChannelFK = "acquisition_channel_id"
		m.FormFK = "lead_form_id"
		m.EmailSent = "email_sent"
		m.EmailOpened = "email_opened"
		m.HubspotSynced = "hubspot_synced"
		return m
	}(),
	models.OriginCollaborator: func() ColumnMap {
		m := base("collaborator_applications")
		m.Name = "full_name"
		m.Company = "company"
		m.Profession = "profession"
		m.Message = "motivation"
		return m
	}(),
	models.OriginAcquisition: func() ColumnMap {
		m := base("acquisition_requests")
		m.Name = "full_name"
		m.Company = "company"
		m.CRMStatus = "crm_status"
		m.Sector = "sectors_of_interest"
		m.InvestmentBudget = "investment_budget"
		m.PreferredLocation = "preferred_location"
		m.Message = "additional_info"
		m.UTMSource = "utm_source"
		m.ChannelFK = "acquisition_channel_id"
		m.BrevoSynced = "brevo_synced"
		return m
	}(),
	models.OriginInquiry: func() ColumnMap {
		m := base("company_acquisition_inquiries")
		m.Name = "full_name"
		m.Company = "company"
		m.Sector = "target_sector"
		m.InvestmentBudget = "investment_range"
		m.PreferredLocation = "preferred_location"
		m.UTMSource = "utm_source"
		m.CompanyFK = "company_id"
		return m
	}(),
	models.OriginGeneral: func() ColumnMap {
		m := base("general_contact_leads")
		m.Name = "full_name"
		m.Company = "company"
		m.CRMStatus = "crm_status"
		m.ServiceType = "service_type"
		m.Message = "message"
		m.UTMSource = "utm_source"
		m.ChannelFK = "acquisition_channel_id"
		m.FormFK = "lead_form_id"
		m.EmailSent = "email_sent"
		m.EmailOpened = "email_opened"
		return m
	}(),
	models.OriginAdvisor: func() ColumnMap {
		m := base("advisor_leads")
		m.Name = "name"
		m.Company = "firm_name"
		m.Sector = "sector"
		m.EmployeeRange = "employee_range"
		m.Revenue = "revenue"
		m.EBITDA = "ebitda"
		m.FinalValuation = "final_valuation"
		m.EmailSent = "email_sent"
		m.EmailOpened = "email_opened"
		return m
	}(),
}

func init() {
	for _, origin := range models.Origins {
		if _, ok := columnMaps[origin]; !ok {
			panic(fmt.Sprintf("sources: no column map for origin %q", origin))
		}
	}
}

// Columns returns the column map for origin.
func Columns(origin models.Origin) (ColumnMap, error) {
	m, ok := columnMaps[origin]
	if !ok {
		return ColumnMap{}, fmt.Errorf("%w: %q", models.ErrUnknownOrigin, origin)
	}
	return m, nil
}
