// ABOUTME: Read-side MCP tool handlers over the unified contact stream
// ABOUTME: Implements list_contacts, contact_stats and export_contacts
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/leadbook/config"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/unify"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ContactHandlers struct {
	mgr     *unify.Manager
	presets config.Presets
	policy  unify.Invalidation
	logger  *zap.Logger
}

func NewContactHandlers(mgr *unify.Manager, presets config.Presets, policy unify.Invalidation, logger *zap.Logger) *ContactHandlers {
	if presets == nil {
		presets = config.Presets{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHandlers{mgr: mgr, presets: presets, policy: policy, logger: logger}
}

type ContactOutput struct {
	Key             string   `json:"key"`
	Origin          string   `json:"origin"`
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Company         string   `json:"company,omitempty"`
	Status          string   `json:"status,omitempty"`
	CRMStatus       string   `json:"crm_status,omitempty"`
	Priority        string   `json:"priority"`
	AssignedTo      string   `json:"assigned_to,omitempty"`
	AssignedToName  string   `json:"assigned_to_name,omitempty"`
	Sector          string   `json:"sector,omitempty"`
	Revenue         *float64 `json:"revenue,omitempty"`
	FinalValuation  *float64 `json:"final_valuation,omitempty"`
	OccurrenceCount int      `json:"occurrence_count"`
	EmailSent       bool     `json:"email_sent"`
	EmailOpened     bool     `json:"email_opened"`
	CreatedAt       string   `json:"created_at"`
}

func contactToOutput(c models.Contact) ContactOutput {
	out := ContactOutput{
		Key:             c.Key().String(),
		Origin:          string(c.Origin),
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Company:         c.Company,
		Status:          c.Status,
		Priority:        string(c.Priority),
		AssignedToName:  c.AssignedToName,
		Sector:          c.Sector,
		Revenue:         c.RevenueValue(),
		FinalValuation:  c.FinalValuation,
		OccurrenceCount: c.OccurrenceCount,
		EmailSent:       c.EmailSent,
		EmailOpened:     c.EmailOpened,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
	if c.CRMStatus != nil {
		out.CRMStatus = string(*c.CRMStatus)
	}
	if c.AssignedTo != nil {
		out.AssignedTo = *c.AssignedTo
	}
	return out
}

// stream returns the full merged stream, fetching first when it is stale or
// was never loaded. A failed refresh falls back to the last good stream.
func (h *ContactHandlers) stream(ctx context.Context) ([]models.Contact, bool, error) {
	store := h.mgr.Store()
	if _, err := h.mgr.RefreshIfStale(ctx); err != nil {
		if !store.Loaded() {
			return nil, false, fmt.Errorf("failed to load contacts: %w", err)
		}
		h.logger.Warn("refresh failed, serving last good contacts", zap.Error(err))
	}
	view := store.Snapshot()
	return view.Contacts, view.Stale || view.Err != nil, nil
}

func (h *ContactHandlers) filtered(ctx context.Context, in FilterInput) (view, all []models.Contact, stale bool, err error) {
	filters, err := in.toFilters()
	if err != nil {
		return nil, nil, false, err
	}
	filters, err = h.presets.Resolve(in.Preset, filters)
	if err != nil {
		return nil, nil, false, err
	}
	all, stale, err = h.stream(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	return unify.Apply(all, filters), all, stale, nil
}

// View returns the filtered contacts for callers that render them directly.
func (h *ContactHandlers) View(ctx context.Context, in FilterInput) ([]models.Contact, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	view, _, _, err := h.filtered(ctx, in)
	return view, err
}

type ListContactsInput struct {
	Filters FilterInput `json:"filters,omitempty" jsonschema:"Filter options; all optional and combined with AND"`
	Limit   int         `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50, max 500)" validate:"gte=0,lte=500"`
	Offset  int         `json:"offset,omitempty" jsonschema:"Number of matching results to skip" validate:"gte=0"`
}

type ListContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Total    int             `json:"total"`
	Stale    bool            `json:"stale"`
}

func (h *ContactHandlers) ListContacts(ctx context.Context, request *mcp.CallToolRequest, input ListContactsInput) (*mcp.CallToolResult, ListContactsOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, ListContactsOutput{}, err
	}
	view, _, stale, err := h.filtered(ctx, input.Filters)
	if err != nil {
		return nil, ListContactsOutput{}, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	start := min(input.Offset, len(view))
	end := min(start+limit, len(view))

	out := ListContactsOutput{
		Contacts: make([]ContactOutput, 0, end-start),
		Total:    len(view),
		Stale:    stale,
	}
	for _, c := range view[start:end] {
		out.Contacts = append(out.Contacts, contactToOutput(c))
	}
	return nil, out, nil
}

type ContactStatsInput struct {
	Filters FilterInput `json:"filters,omitempty" jsonschema:"Filter options; stats are computed over the filtered view"`
}

type ContactStatsOutput struct {
	Total          int            `json:"total"`
	UniqueContacts int            `json:"unique_contacts"`
	Hot            int            `json:"hot"`
	Warm           int            `json:"warm"`
	Cold           int            `json:"cold"`
	Qualified      int            `json:"qualified"`
	EmailsSent     int            `json:"emails_sent"`
	EmailsOpened   int            `json:"emails_opened"`
	OpenRate       float64        `json:"open_rate"`
	QualifiedRate  float64        `json:"qualified_rate"`
	TotalValuation float64        `json:"total_valuation"`
	TotalRevenue   float64        `json:"total_revenue"`
	ByOrigin       map[string]int `json:"by_origin"`
	Stale          bool           `json:"stale"`
}

func (h *ContactHandlers) ContactStats(ctx context.Context, request *mcp.CallToolRequest, input ContactStatsInput) (*mcp.CallToolResult, ContactStatsOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, ContactStatsOutput{}, err
	}
	view, _, stale, err := h.filtered(ctx, input.Filters)
	if err != nil {
		return nil, ContactStatsOutput{}, err
	}

	s := unify.ComputeStats(view)
	out := ContactStatsOutput{
		Total:          s.Total,
		UniqueContacts: s.UniqueContacts,
		Hot:            s.Hot,
		Warm:           s.Warm,
		Cold:           s.Cold,
		Qualified:      s.Qualified,
		EmailsSent:     s.EmailsSent,
		EmailsOpened:   s.EmailsOpened,
		OpenRate:       s.OpenRate,
		QualifiedRate:  s.QualifiedRate,
		TotalValuation: s.TotalValuation,
		TotalRevenue:   s.TotalRevenue,
		ByOrigin:       make(map[string]int, len(s.ByOrigin)),
		Stale:          stale,
	}
	for origin, n := range s.ByOrigin {
		out.ByOrigin[string(origin)] = n
	}
	return nil, out, nil
}

type ExportContactsInput struct {
	Filters FilterInput `json:"filters,omitempty" jsonschema:"Filter options selecting the rows to export"`
	Path    string      `json:"path,omitempty" jsonschema:"Write the CSV to this file instead of returning it"`
}

type ExportContactsOutput struct {
	Rows int    `json:"rows"`
	Path string `json:"path,omitempty"`
	CSV  string `json:"csv,omitempty"`
}

func (h *ContactHandlers) ExportContacts(ctx context.Context, request *mcp.CallToolRequest, input ExportContactsInput) (*mcp.CallToolResult, ExportContactsOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, ExportContactsOutput{}, err
	}
	view, all, _, err := h.filtered(ctx, input.Filters)
	if err != nil {
		return nil, ExportContactsOutput{}, err
	}

	var buf bytes.Buffer
	if err := unify.WriteCSV(&buf, view, all); err != nil {
		return nil, ExportContactsOutput{}, err
	}

	out := ExportContactsOutput{Rows: len(view)}
	if input.Path == "" {
		out.CSV = buf.String()
		return nil, out, nil
	}
	if err := os.WriteFile(input.Path, buf.Bytes(), 0600); err != nil {
		return nil, ExportContactsOutput{}, fmt.Errorf("failed to write export: %w", err)
	}
	out.Path = input.Path
	return nil, out, nil
}
