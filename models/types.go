// ABOUTME: Data models for the unified lead contact stream
// ABOUTME: Defines Contact, Origin, CRMStatus, ContactKey and the canonical patch shape
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Origin identifies which lead-capture source a Contact came from.
type Origin string

const (
	OriginValuation    Origin = "valuation"
	OriginContact      Origin = "contact"
	OriginCollaborator Origin = "collaborator"
	OriginAcquisition  Origin = "acquisition"
	OriginInquiry      Origin = "inquiry"
	OriginGeneral      Origin = "general"
	OriginAdvisor      Origin = "advisor"
)

// Origins lists every origin in display order.
var Origins = []Origin{
	OriginValuation,
	OriginContact,
	OriginCollaborator,
	OriginAcquisition,
	OriginInquiry,
	OriginGeneral,
	OriginAdvisor,
}

// Valid reports whether o is one of the known origins.
func (o Origin) Valid() bool {
	for _, known := range Origins {
		if o == known {
			return true
		}
	}
	return false
}

// ParseOrigin converts a tag into an Origin.
func ParseOrigin(tag string) (Origin, error) {
	o := Origin(strings.ToLower(strings.TrimSpace(tag)))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrigin, tag)
	}
	return o, nil
}

// CRMStatus is the richer pipeline status some sources carry next to the free-form status.
type CRMStatus string

const (
	CRMStatusNew         CRMStatus = "new"
	CRMStatusContacted   CRMStatus = "contacted"
	CRMStatusQualified   CRMStatus = "qualified"
	CRMStatusOpportunity CRMStatus = "opportunity"
	CRMStatusProposal    CRMStatus = "proposal"
	CRMStatusNegotiation CRMStatus = "negotiation"
	CRMStatusWon         CRMStatus = "won"
	CRMStatusLost        CRMStatus = "lost"
	CRMStatusArchived    CRMStatus = "archived"
)

var crmStatuses = []CRMStatus{
	CRMStatusNew,
	CRMStatusContacted,
	CRMStatusQualified,
	CRMStatusOpportunity,
	CRMStatusProposal,
	CRMStatusNegotiation,
	CRMStatusWon,
	CRMStatusLost,
	CRMStatusArchived,
}

// ParseCRMStatus validates a CRM status string.
func ParseCRMStatus(s string) (CRMStatus, error) {
	status := CRMStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range crmStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid crm status: %q", s)
}

// NextCRMStatus returns the status after s in pipeline order, wrapping around.
func NextCRMStatus(s CRMStatus) CRMStatus {
	for i, known := range crmStatuses {
		if known == s {
			return crmStatuses[(i+1)%len(crmStatuses)]
		}
	}
	return CRMStatusNew
}

// Priority is the hot/warm/cold classification derived from engagement and value signals.
type Priority string

const (
	PriorityHot  Priority = "hot"
	PriorityWarm Priority = "warm"
	PriorityCold Priority = "cold"
)

// Contact is the canonical lead entity produced by the source adapters.
// ID is only unique together with Origin; cross-source joins use IdentityKey.
type Contact struct {
	ID             string     `json:"id"`
	Origin         Origin     `json:"origin"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Company        string     `json:"company,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	Status         string     `json:"status,omitempty"`
	CRMStatus      *CRMStatus `json:"crm_status,omitempty"`
	AssignedTo     *string    `json:"assigned_to,omitempty"`
	AssignedToName string     `json:"assigned_to_name,omitempty"`

	// Source-specific payload. Presence depends on Origin.
	Sector                     string   `json:"sector,omitempty"`
	EmployeeRange              string   `json:"employee_range,omitempty"`
	Revenue                    *float64 `json:"revenue,omitempty"`
	EBITDA                     *float64 `json:"ebitda,omitempty"`
	FinalValuation             *float64 `json:"final_valuation,omitempty"`
	ValuationType              string   `json:"valuation_type,omitempty"`
	InvestmentBudget           string   `json:"investment_budget,omitempty"`
	PreferredLocation          string   `json:"preferred_location,omitempty"`
	Message                    string   `json:"message,omitempty"`
	ServiceType                string   `json:"service_type,omitempty"`
	Profession                 string   `json:"profession,omitempty"`
	UTMSource                  string   `json:"utm_source,omitempty"`
	AcquisitionChannelID       *string  `json:"acquisition_channel_id,omitempty"`
	AcquisitionChannelName     string   `json:"acquisition_channel_name,omitempty"`
	AcquisitionChannelCategory string   `json:"acquisition_channel_category,omitempty"`
	LeadFormID                 *string  `json:"lead_form_id,omitempty"`
	LeadFormName               string   `json:"lead_form_name,omitempty"`

	// Linked company aggregates, joined from the companies relation.
	CompanyID            *string  `json:"company_id,omitempty"`
	LinkedCompanyName    string   `json:"linked_company_name,omitempty"`
	LinkedCompanyRevenue *float64 `json:"linked_company_revenue,omitempty"`

	// Derived fields.
	Priority        Priority `json:"priority"`
	OccurrenceCount int      `json:"occurrence_count"`
	EmailSent       bool     `json:"email_sent"`
	EmailOpened     bool     `json:"email_opened"`
	HubspotSynced   bool     `json:"hubspot_synced"`
	BrevoSynced     bool     `json:"brevo_synced"`
}

// Key returns the (origin, id) pair that uniquely identifies this record.
func (c Contact) Key() ContactKey {
	return ContactKey{Origin: c.Origin, ID: c.ID}
}

// IdentityKey returns the normalized email used to correlate records across origins.
// Records without an email never share an identity with anything else.
func (c Contact) IdentityKey() string {
	if email := NormalizeEmail(c.Email); email != "" {
		return email
	}
	return "#" + c.Key().String()
}

// EffectiveStatus prefers the CRM status and falls back to the free-form status.
func (c Contact) EffectiveStatus() string {
	if c.CRMStatus != nil && *c.CRMStatus != "" {
		return string(*c.CRMStatus)
	}
	return strings.ToLower(strings.TrimSpace(c.Status))
}

// MonetaryValue is the value used for priority scoring: the valuation when present,
// otherwise declared revenue.
func (c Contact) MonetaryValue() *float64 {
	if c.FinalValuation != nil {
		return c.FinalValuation
	}
	return c.Revenue
}

// RevenueValue returns the record's revenue, falling back to the linked company's.
func (c Contact) RevenueValue() *float64 {
	if c.Revenue != nil {
		return c.Revenue
	}
	return c.LinkedCompanyRevenue
}

// Clone returns a deep copy; no pointer is shared with c.
func (c Contact) Clone() Contact {
	cp := c
	cp.CRMStatus = clonePtr(c.CRMStatus)
	cp.AssignedTo = clonePtr(c.AssignedTo)
	cp.Revenue = clonePtr(c.Revenue)
	cp.EBITDA = clonePtr(c.EBITDA)
	cp.FinalValuation = clonePtr(c.FinalValuation)
	cp.AcquisitionChannelID = clonePtr(c.AcquisitionChannelID)
	cp.LeadFormID = clonePtr(c.LeadFormID)
	cp.CompanyID = clonePtr(c.CompanyID)
	cp.LinkedCompanyRevenue = clonePtr(c.LinkedCompanyRevenue)
	return cp
}

// CloneContacts deep-copies a slice of contacts.
func CloneContacts(contacts []Contact) []Contact {
	if contacts == nil {
		return nil
	}
	out := make([]Contact, len(contacts))
	for i := range contacts {
		out[i] = contacts[i].Clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NormalizeEmail converts email to lowercase for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ContactPatch is the canonical partial update. Nil fields are left untouched.
type ContactPatch struct {
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Company     *string    `json:"company,omitempty"`
	Sector      *string    `json:"sector,omitempty"`
	Status      *string    `json:"status,omitempty"`
	CRMStatus   *CRMStatus `json:"crm_status,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"` // empty string clears the assignment
	EmailSent   *bool      `json:"email_sent,omitempty"`
	EmailOpened *bool      `json:"email_opened,omitempty"`
	Deleted     *bool      `json:"is_deleted,omitempty"`

	// AssignedToName is display-only; it never reaches the datastore.
	AssignedToName *string `json:"-"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Company == nil &&
		p.Sector == nil && p.Status == nil && p.CRMStatus == nil && p.AssignedTo == nil &&
		p.EmailSent == nil && p.EmailOpened == nil && p.Deleted == nil && p.AssignedToName == nil
}

// Removes reports whether applying the patch deletes the record from the stream.
func (p ContactPatch) Removes() bool {
	return p.Deleted != nil && *p.Deleted
}

// Apply shallow-merges the patch into c and recomputes its priority.
func (p ContactPatch) Apply(c *Contact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Sector != nil {
		c.Sector = *p.Sector
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.CRMStatus != nil {
		c.CRMStatus = clonePtr(p.CRMStatus)
	}
	if p.AssignedTo != nil {
		if *p.AssignedTo == "" {
			c.AssignedTo = nil
			c.AssignedToName = ""
		} else {
			if c.AssignedTo == nil || *c.AssignedTo != *p.AssignedTo {
				c.AssignedToName = ""
			}
			c.AssignedTo = clonePtr(p.AssignedTo)
		}
	}
	if p.AssignedToName != nil {
		c.AssignedToName = *p.AssignedToName
	}
	if p.EmailSent != nil {
		c.EmailSent = *p.EmailSent
	}
	if p.EmailOpened != nil {
		c.EmailOpened = *p.EmailOpened
	}
	c.RefreshPriority()
}

// Fields returns the canonical field map sent to the bulk remote procedure.
func (p ContactPatch) Fields() (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode patch fields: %w", err)
	}
	return fields, nil
}

// PatchFromFields decodes a canonical field map back into a patch.
func PatchFromFields(fields map[string]any) (ContactPatch, error) {
	var p ContactPatch
	data, err := json.Marshal(fields)
	if err != nil {
		return p, fmt.Errorf("failed to encode fields: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to decode fields: %w", err)
	}
	return p, nil
}
