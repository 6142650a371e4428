// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Live view over the unified lead stream with optimistic edits
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/unify"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	mgr    *unify.Manager
	policy unify.Invalidation
	ctx    context.Context

	viewMode ViewMode

	// Store subscription
	updates     chan unify.View
	unsubscribe func()

	// Stream state
	all     []models.Contact
	view    []models.Contact
	stats   models.Stats
	loaded  bool
	stale   bool
	pending int

	// List view state
	filters   models.Filters
	search    textinput.Model
	searching bool
	table     table.Model
	marked    map[models.ContactKey]bool

	// Detail and delete state
	selected models.ContactKey

	// UI state
	status string
	err    error
	width  int
	height int
}

// NewModel creates a model subscribed to the manager's store.
func NewModel(ctx context.Context, mgr *unify.Manager, policy unify.Invalidation) Model {
	search := textinput.New()
	search.Placeholder = "search name, email, company..."
	search.Prompt = "/ "

	t := table.New(
		table.WithColumns(listColumns),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	updates := make(chan unify.View, 1)
	unsubscribe := mgr.Store().Subscribe(func(v unify.View) {
		// Keep only the newest view; readers never need intermediate states.
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- v:
		default:
		}
	})

	m := Model{
		mgr:         mgr,
		policy:      policy,
		ctx:         ctx,
		viewMode:    ViewList,
		updates:     updates,
		unsubscribe: unsubscribe,
		search:      search,
		table:       t,
		marked:      make(map[models.ContactKey]bool),
		width:       120,
		height:      24,
	}
	m.applyView(mgr.Store().Snapshot())
	return m
}

// Close detaches the model from the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), waitForView(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-10, 3))
		return m, nil
	case viewMsg:
		m.applyView(unify.View(msg))
		return m, waitForView(m.updates)
	case fetchDoneMsg:
		m.err = msg.err
		m.applyView(m.mgr.Store().Snapshot())
		return m, nil
	case mutationDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = msg.label
		}
		m.applyView(m.mgr.Store().Snapshot())
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if msg.String() == "q" && !m.searching {
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// applyView replaces the stream and recomputes the filtered view and stats.
func (m *Model) applyView(v unify.View) {
	m.all = v.Contacts
	m.loaded = v.Loaded
	m.stale = v.Stale
	m.pending = v.Pending
	if v.Err != nil {
		m.err = v.Err
	}
	m.recompute()
}

func (m *Model) recompute() {
	f := m.filters
	f.Search = m.search.Value()
	m.view = unify.Apply(m.all, f)
	m.stats = unify.ComputeStats(m.view)

	present := make(map[models.ContactKey]bool, len(m.all))
	for _, c := range m.all {
		present[c.Key()] = true
	}
	for k := range m.marked {
		if !present[k] {
			delete(m.marked, k)
		}
	}

	m.table.SetRows(tableRows(m.view, m.marked))
	if n := len(m.view); m.table.Cursor() >= n && n > 0 {
		m.table.SetCursor(n - 1)
	}
}

// current returns the contact under the cursor.
func (m Model) current() (models.Contact, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.view) {
		return models.Contact{}, false
	}
	return m.view[i], true
}

func (m Model) statusLine() string {
	var parts []string
	if !m.loaded {
		parts = append(parts, "loading...")
	}
	if m.pending > 0 {
		parts = append(parts, pendingStyle.Render(fmt.Sprintf("%d saving", m.pending)))
	}
	if m.stale {
		parts = append(parts, staleStyle.Render("stale (r to refresh)"))
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		parts = append(parts, okStyle.Render(m.status))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joinSpaced(parts)...)
}

func joinSpaced(parts []string) []string {
	out := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, p)
	}
	return out
}

// Run starts the full-screen console and blocks until the user quits.
func Run(ctx context.Context, mgr *unify.Manager, policy unify.Invalidation) error {
	m := NewModel(ctx, mgr, policy)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("failed to run tui: %w", err)
	}
	return nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	filterActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	filterInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	labelStyle   = lipgloss.NewStyle().Bold(true).Width(18)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)
