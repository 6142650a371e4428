// ABOUTME: Source adapters converting raw lead rows into canonical contacts
// ABOUTME: One stateless adapter per origin, all driven by the shared column table
package sources

import (
	"fmt"

	"github.com/harperreed/leadbook/models"
)

// Adapter maps raw records of a single origin into canonical contacts.
type Adapter struct {
	Origin  models.Origin
	Columns ColumnMap
}

var adapters = func() map[models.Origin]Adapter {
	out := make(map[models.Origin]Adapter, len(columnMaps))
	for origin, cols := range columnMaps {
		out[origin] = Adapter{Origin: origin, Columns: cols}
	}
	return out
}()

// AdapterFor returns the adapter registered for origin.
func AdapterFor(origin models.Origin) (Adapter, error) {
	a, ok := adapters[origin]
	if !ok {
		return Adapter{}, fmt.Errorf("%w: %q", models.ErrUnknownOrigin, origin)
	}
	return a, nil
}

// All returns every adapter in models.Origins order.
func All() []Adapter {
	out := make([]Adapter, 0, len(models.Origins))
	for _, origin := range models.Origins {
		out = append(out, adapters[origin])
	}
	return out
}

// Map converts one raw record. It never fails: absent optional columns stay nil or empty.
func (a Adapter) Map(r Record) models.Contact {
	m := a.Columns
	c := models.Contact{
		ID:         r.String(m.ID),
		Origin:     a.Origin,
		Name:       r.String(m.Name),
		Email:      r.String(m.Email),
		Phone:      r.String(m.Phone),
		Company:    r.String(m.Company),
		CreatedAt:  r.Time(m.CreatedAt),
		Status:     r.String(m.Status),
		AssignedTo: r.OptString(m.AssignedTo),

		Sector:            r.String(m.Sector),
		EmployeeRange:     r.String(m.EmployeeRange),
		Revenue:           r.Float(m.Revenue),
		EBITDA:            r.Float(m.EBITDA),
		FinalValuation:    r.Float(m.FinalValuation),
		ValuationType:     r.String(m.ValuationType),
		InvestmentBudget:  r.String(m.InvestmentBudget),
		PreferredLocation: r.String(m.PreferredLocation),
		Message:           r.String(m.Message),
		ServiceType:       r.String(m.ServiceType),
		Profession:        r.String(m.Profession),
		UTMSource:         r.String(m.UTMSource),

		CompanyID:            r.OptString(m.CompanyFK),
		AcquisitionChannelID: r.OptString(m.ChannelFK),
		LeadFormID:           r.OptString(m.FormFK),

		EmailSent:     r.Bool(m.EmailSent),
		EmailOpened:   r.Bool(m.EmailOpened),
		HubspotSynced: r.Bool(m.HubspotSynced),
		BrevoSynced:   r.Bool(m.BrevoSynced),
	}

	if s := r.String(m.CRMStatus); s != "" {
		if status, err := models.ParseCRMStatus(s); err == nil {
			c.CRMStatus = &status
		}
	}
	if c.Status == "" {
		c.Status = string(models.CRMStatusNew)
	}

	if c.CompanyID != nil {
		c.LinkedCompanyName = r.String(LookupCompanyName)
		c.LinkedCompanyRevenue = r.Float(LookupCompanyRevenue)
	}
	if c.AcquisitionChannelID != nil {
		c.AcquisitionChannelName = r.String(LookupChannelName)
		c.AcquisitionChannelCategory = r.String(LookupChannelCategory)
	}
	if c.LeadFormID != nil {
		c.LeadFormName = r.String(LookupFormName)
	}
	if c.Company == "" {
		c.Company = c.LinkedCompanyName
	}

	c.RefreshPriority()
	return c
}

// MapAll converts a batch of records.
func (a Adapter) MapAll(records []Record) []models.Contact {
	out := make([]models.Contact, 0, len(records))
	for _, r := range records {
		out = append(out, a.Map(r))
	}
	return out
}
