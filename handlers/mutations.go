// ABOUTME: Write-side MCP tool handlers driving optimistic mutations
// ABOUTME: Implements update_contact, bulk_update_contacts and delete_contact
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/unify"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// PatchInput lists the editable fields. Omitted fields are left untouched.
type PatchInput struct {
	Name        *string `json:"name,omitempty" jsonschema:"Contact name"`
	Email       *string `json:"email,omitempty" jsonschema:"Email address" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" jsonschema:"Phone number"`
	Company     *string `json:"company,omitempty" jsonschema:"Company name"`
	Sector      *string `json:"sector,omitempty" jsonschema:"Sector"`
	Status      *string `json:"status,omitempty" jsonschema:"Free-form status"`
	CRMStatus   *string `json:"crm_status,omitempty" jsonschema:"Pipeline status: new, contacted, qualified, opportunity, proposal, negotiation, won, lost or archived" validate:"omitempty,oneof=new contacted qualified opportunity proposal negotiation won lost archived"`
	AssignedTo  *string `json:"assigned_to,omitempty" jsonschema:"Owner profile ID; empty string clears the assignment"`
	EmailSent   *bool   `json:"email_sent,omitempty" jsonschema:"Whether an email was sent"`
	EmailOpened *bool   `json:"email_opened,omitempty" jsonschema:"Whether the email was opened"`
}

func (in PatchInput) toPatch() (models.ContactPatch, error) {
	p := models.ContactPatch{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Company:     in.Company,
		Sector:      in.Sector,
		Status:      in.Status,
		AssignedTo:  in.AssignedTo,
		EmailSent:   in.EmailSent,
		EmailOpened: in.EmailOpened,
	}
	if in.CRMStatus != nil {
		status, err := models.ParseCRMStatus(*in.CRMStatus)
		if err != nil {
			return p, err
		}
		p.CRMStatus = &status
	}
	return p, nil
}

func (h *ContactHandlers) invalidation(raw string) (unify.Invalidation, error) {
	if raw == "" {
		return h.policy, nil
	}
	return unify.ParseInvalidation(raw)
}

type UpdateContactInput struct {
	Key          string     `json:"key" jsonschema:"Composite contact key, e.g. valuation_<id> (required)" validate:"required"`
	Patch        PatchInput `json:"patch" jsonschema:"Fields to change"`
	Invalidation string     `json:"invalidation,omitempty" jsonschema:"silent marks the cache stale, active refetches now" validate:"omitempty,oneof=silent active"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, request *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, ContactOutput{}, err
	}
	key, err := models.ParseCompositeKey(input.Key)
	if err != nil {
		return nil, ContactOutput{}, err
	}
	patch, err := input.Patch.toPatch()
	if err != nil {
		return nil, ContactOutput{}, err
	}
	policy, err := h.invalidation(input.Invalidation)
	if err != nil {
		return nil, ContactOutput{}, err
	}
	if _, _, err := h.stream(ctx); err != nil {
		return nil, ContactOutput{}, err
	}

	if err := h.mgr.Update(ctx, key, patch, policy); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	contact, ok := h.mgr.Store().Get(key)
	if !ok {
		return nil, ContactOutput{}, fmt.Errorf("contact %s disappeared after update", key)
	}
	return nil, contactToOutput(contact), nil
}

type BulkUpdateContactsInput struct {
	Keys         []string   `json:"keys" jsonschema:"Composite contact keys to update (required)" validate:"required,min=1,max=500,dive,required"`
	Patch        PatchInput `json:"patch" jsonschema:"Fields to change on every contact"`
	Invalidation string     `json:"invalidation,omitempty" jsonschema:"silent marks the cache stale, active refetches now" validate:"omitempty,oneof=silent active"`
}

type BulkUpdateContactsOutput struct {
	MutationID   string   `json:"mutation_id"`
	Outcome      string   `json:"outcome"`
	Message      string   `json:"message"`
	UpdatedCount int      `json:"updated_count"`
	FailedCount  int      `json:"failed_count"`
	FailedKeys   []string `json:"failed_keys"`
	Errors       []string `json:"errors"`
}

func (h *ContactHandlers) BulkUpdateContacts(ctx context.Context, request *mcp.CallToolRequest, input BulkUpdateContactsInput) (*mcp.CallToolResult, BulkUpdateContactsOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, BulkUpdateContactsOutput{}, err
	}
	patch, err := input.Patch.toPatch()
	if err != nil {
		return nil, BulkUpdateContactsOutput{}, err
	}
	policy, err := h.invalidation(input.Invalidation)
	if err != nil {
		return nil, BulkUpdateContactsOutput{}, err
	}
	if _, _, err := h.stream(ctx); err != nil {
		return nil, BulkUpdateContactsOutput{}, err
	}

	res, err := h.mgr.BulkUpdate(ctx, input.Keys, patch, policy)
	if err != nil {
		// A rolled back bulk update still reports which contacts failed and why.
		var mutErr *unify.MutationError
		if !errors.As(err, &mutErr) || res.MutationID == "" {
			return nil, BulkUpdateContactsOutput{}, fmt.Errorf("failed to bulk update contacts: %w", err)
		}
		h.logger.Warn("bulk update rolled back",
			zap.String("mutation_id", res.MutationID),
			zap.Strings("failed_keys", res.FailedKeys),
			zap.Error(err))
	}
	return nil, bulkOutput(res), nil
}

func bulkOutput(res unify.BulkResult) BulkUpdateContactsOutput {
	return BulkUpdateContactsOutput{
		MutationID:   res.MutationID,
		Outcome:      string(res.Outcome),
		Message:      res.Message(),
		UpdatedCount: res.UpdatedCount,
		FailedCount:  res.FailedCount,
		FailedKeys:   res.FailedKeys,
		Errors:       res.Errors,
	}
}

type DeleteContactInput struct {
	Key          string `json:"key" jsonschema:"Composite contact key (required)" validate:"required"`
	Invalidation string `json:"invalidation,omitempty" jsonschema:"silent marks the cache stale, active refetches now" validate:"omitempty,oneof=silent active"`
}

type DeleteContactOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, request *mcp.CallToolRequest, input DeleteContactInput) (*mcp.CallToolResult, DeleteContactOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, DeleteContactOutput{}, err
	}
	key, err := models.ParseCompositeKey(input.Key)
	if err != nil {
		return nil, DeleteContactOutput{}, err
	}
	policy, err := h.invalidation(input.Invalidation)
	if err != nil {
		return nil, DeleteContactOutput{}, err
	}
	if _, _, err := h.stream(ctx); err != nil {
		return nil, DeleteContactOutput{}, err
	}

	if err := h.mgr.Delete(ctx, key, policy); err != nil {
		return nil, DeleteContactOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil, DeleteContactOutput{
		Success: true,
		Message: fmt.Sprintf("Deleted contact %s", key),
	}, nil
}

type RecentActivityInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum entries to return (default 20)" validate:"omitempty,min=1,max=200"`
}

type RecentActivityOutput struct {
	Activity []unify.Activity `json:"activity"`
}

func (h *ContactHandlers) RecentActivity(ctx context.Context, request *mcp.CallToolRequest, input RecentActivityInput) (*mcp.CallToolResult, RecentActivityOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, RecentActivityOutput{}, err
	}
	limit := input.Limit
	if limit == 0 {
		limit = 20
	}
	return nil, RecentActivityOutput{Activity: h.mgr.Activity(limit)}, nil
}
