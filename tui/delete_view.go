// ABOUTME: Delete confirmation view for the lead console
// ABOUTME: Confirming soft-deletes the contact optimistically; a failed delete restores it
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderConfirmDeleteView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("DELETE CONTACT"))
	s.WriteString("\n")

	c, ok := m.find(m.selected)
	if !ok {
		s.WriteString("Contact no longer in the stream\n")
		s.WriteString(helpStyle.Render("Esc: Back"))
		return s.String()
	}
	s.WriteString(fmt.Sprintf("Delete %s (%s, %s)?\n", c.Name, c.Origin, c.Email))
	if c.OccurrenceCount > 1 {
		s.WriteString(fmt.Sprintf("Only this record is removed; %d other record(s) share the email.\n", c.OccurrenceCount-1))
	}
	s.WriteString(helpStyle.Render("y: Confirm • n/Esc: Cancel"))
	return s.String()
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		c, ok := m.find(m.selected)
		m.viewMode = ViewList
		if !ok {
			return m, nil
		}
		return m, m.deleteCmd(c.Key(), c.Name)
	case "n", "N", "esc":
		m.viewMode = ViewList
	}
	return m, nil
}
