package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadbook/models"
)

var listColumns = []table.Column{
	{Title: " ", Width: 1},
	{Title: "Origin", Width: 12},
	{Title: "Name", Width: 22},
	{Title: "Email", Width: 26},
	{Title: "Company", Width: 18},
	{Title: "Status", Width: 12},
	{Title: "Priority", Width: 8},
	{Title: "#", Width: 2},
	{Title: "Created", Width: 10},
}

var priorityCycle = []models.Priority{"", models.PriorityHot, models.PriorityWarm, models.PriorityCold}

func tableRows(view []models.Contact, marked map[models.ContactKey]bool) []table.Row {
	rows := make([]table.Row, 0, len(view))
	for _, c := range view {
		mark := ""
		if marked[c.Key()] {
			mark = "*"
		}
		rows = append(rows, table.Row{
			mark,
			string(c.Origin),
			c.Name,
			c.Email,
			c.Company,
			c.EffectiveStatus(),
			string(c.Priority),
			strconv.Itoa(c.OccurrenceCount),
			c.CreatedAt.Format("2006-01-02"),
		})
	}
	return rows
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("LEADBOOK"))
	s.WriteString("\n")
	s.WriteString(m.renderStats())
	s.WriteString("\n\n")
	s.WriteString(m.renderFilters())
	s.WriteString("\n")
	if m.searching || m.search.Value() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(m.table.View())
	s.WriteString("\n")
	s.WriteString(m.statusLine())
	s.WriteString("\n")
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderStats() string {
	st := m.stats
	return fmt.Sprintf("%d leads · %d unique · hot %d · warm %d · cold %d · open rate %.0f%% · qualified %.0f%%",
		st.Total, st.UniqueContacts, st.Hot, st.Warm, st.Cold, st.OpenRate*100, st.QualifiedRate*100)
}

func (m Model) renderFilters() string {
	tag := func(label string, active bool) string {
		if active {
			return filterActiveStyle.Render(label)
		}
		return filterInactiveStyle.Render(label)
	}
	origin := "all sources"
	if m.filters.Origin != "" {
		origin = string(m.filters.Origin)
	}
	priority := "any priority"
	if m.filters.Priority != "" {
		priority = string(m.filters.Priority)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		tag(origin, m.filters.Origin != ""),
		tag(priority, m.filters.Priority != ""),
		tag("unique", m.filters.UniqueOnly),
		tag("repeated", m.filters.RepeatedOnly),
		tag(fmt.Sprintf("%d marked", len(m.marked)), len(m.marked) > 0),
	)
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"/: Search",
		"o: Source",
		"p: Priority",
		"u: Unique",
		"R: Repeated",
		"s: Next status",
		"space: Mark",
		"Q: Qualify marked",
		"d: Delete",
		"r: Refresh",
		"Enter: Details",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.recompute()
		}
	case "o":
		m.filters.Origin = nextOrigin(m.filters.Origin)
		m.recompute()
	case "p":
		m.filters.Priority = nextPriority(m.filters.Priority)
		m.recompute()
	case "u":
		m.filters.UniqueOnly = !m.filters.UniqueOnly
		m.recompute()
	case "R":
		m.filters.RepeatedOnly = !m.filters.RepeatedOnly
		m.recompute()
	case "r":
		m.status = "Refreshing..."
		return m, m.fetchCmd()
	case " ":
		if c, ok := m.current(); ok {
			if m.marked[c.Key()] {
				delete(m.marked, c.Key())
			} else {
				m.marked[c.Key()] = true
			}
			m.recompute()
		}
	case "s":
		c, ok := m.current()
		if !ok {
			return m, nil
		}
		patch, next := nextStatusPatch(c)
		return m, m.updateCmd(c.Key(), patch, fmt.Sprintf("%s → %s", c.Name, next))
	case "Q":
		if len(m.marked) == 0 {
			return m, nil
		}
		keys := make([]string, 0, len(m.marked))
		for k := range m.marked {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		m.marked = make(map[models.ContactKey]bool)
		return m, m.bulkCmd(keys, models.CRMStatusQualified)
	case "d":
		if c, ok := m.current(); ok {
			m.selected = c.Key()
			m.viewMode = ViewConfirmDelete
		}
	case "enter":
		if c, ok := m.current(); ok {
			m.selected = c.Key()
			m.viewMode = ViewDetail
		}
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.recompute()
	return m, cmd
}

func nextOrigin(o models.Origin) models.Origin {
	if o == "" {
		return models.Origins[0]
	}
	for i, known := range models.Origins {
		if known == o && i+1 < len(models.Origins) {
			return models.Origins[i+1]
		}
	}
	return ""
}

func nextPriority(p models.Priority) models.Priority {
	for i, known := range priorityCycle {
		if known == p {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return ""
}
