// ABOUTME: Asynchronous commands bridging the TUI and the mutation manager
// ABOUTME: Remote calls run off the update loop; the store shows optimistic state meanwhile
package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
	"github.com/harperreed/leadbook/unify"
)

type viewMsg unify.View

type fetchDoneMsg struct{ err error }

type mutationDoneMsg struct {
	label string
	err   error
}

func waitForView(updates <-chan unify.View) tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-updates)
	}
}

func (m Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.mgr.Store().Refetch(m.ctx)
		if errors.Is(err, unify.ErrFetchSuperseded) {
			err = nil
		}
		return fetchDoneMsg{err: err}
	}
}

func (m Model) updateCmd(key models.ContactKey, patch models.ContactPatch, label string) tea.Cmd {
	return func() tea.Msg {
		err := m.mgr.Update(m.ctx, key, patch, m.policy)
		return mutationDoneMsg{label: label, err: err}
	}
}

func (m Model) deleteCmd(key models.ContactKey, name string) tea.Cmd {
	return func() tea.Msg {
		err := m.mgr.Delete(m.ctx, key, m.policy)
		return mutationDoneMsg{label: fmt.Sprintf("Deleted %s", name), err: err}
	}
}

func (m Model) bulkCmd(keys []string, status models.CRMStatus) tea.Cmd {
	return func() tea.Msg {
		res, err := m.mgr.BulkUpdate(m.ctx, keys, models.ContactPatch{CRMStatus: &status}, m.policy)
		if err != nil {
			return mutationDoneMsg{err: err}
		}
		return mutationDoneMsg{label: res.Message()}
	}
}

// nextStatusPatch advances c one step through the pipeline. Origins without
// a CRM status column cycle their free-form status instead.
func nextStatusPatch(c models.Contact) (models.ContactPatch, string) {
	cm, err := sources.Columns(c.Origin)
	if err == nil && cm.CRMStatus == "" {
		next := string(models.NextCRMStatus(models.CRMStatus(c.EffectiveStatus())))
		return models.ContactPatch{Status: &next}, next
	}
	current := models.CRMStatusNew
	if c.CRMStatus != nil {
		current = *c.CRMStatus
	}
	next := models.NextCRMStatus(current)
	return models.ContactPatch{CRMStatus: &next}, string(next)
}
