package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/leadbook/models"
)

func (m Model) renderDetailView() string {
	c, ok := m.find(m.selected)
	if !ok {
		return "Contact no longer in the stream\n\n" + helpStyle.Render("Esc: Back")
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(c.Name))
	s.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		s.WriteString(labelStyle.Render(label))
		s.WriteString(value)
		s.WriteString("\n")
	}
	money := func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%.0f", *v)
	}

	field("Key", c.Key().String())
	field("Email", c.Email)
	field("Phone", c.Phone)
	field("Company", c.Company)
	field("Linked company", c.LinkedCompanyName)
	field("Status", c.Status)
	field("CRM status", c.EffectiveStatus())
	field("Priority", string(c.Priority))
	field("Assigned to", c.AssignedToName)
	field("Sector", c.Sector)
	field("Employees", c.EmployeeRange)
	field("Revenue", money(c.RevenueValue()))
	field("EBITDA", money(c.EBITDA))
	field("Valuation", money(c.FinalValuation))
	field("Budget", c.InvestmentBudget)
	field("Location", c.PreferredLocation)
	field("Service", c.ServiceType)
	field("Profession", c.Profession)
	field("Channel", c.AcquisitionChannelName)
	field("Form", c.LeadFormName)
	field("UTM source", c.UTMSource)
	field("Email sent", strconv.FormatBool(c.EmailSent))
	field("Email opened", strconv.FormatBool(c.EmailOpened))
	field("Seen", fmt.Sprintf("%d time(s)", c.OccurrenceCount))
	field("Created", c.CreatedAt.Format("2006-01-02 15:04"))
	field("Message", c.Message)

	s.WriteString("\n")
	s.WriteString(m.statusLine())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("s: Next status • d: Delete • Esc: Back • q: Quit"))
	return s.String()
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
	case "d":
		m.viewMode = ViewConfirmDelete
	case "s":
		c, ok := m.find(m.selected)
		if !ok {
			return m, nil
		}
		patch, next := nextStatusPatch(c)
		return m, m.updateCmd(c.Key(), patch, fmt.Sprintf("%s → %s", c.Name, next))
	}
	return m, nil
}

func (m Model) find(key models.ContactKey) (models.Contact, bool) {
	for _, c := range m.all {
		if c.Key() == key {
			return c, true
		}
	}
	return models.Contact{}, false
}
