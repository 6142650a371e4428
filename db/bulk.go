// ABOUTME: The bulk contact update remote procedure
// ABOUTME: Each composite key is parsed, translated and written independently so failures stay per-identity
package db

import (
	"context"
	"fmt"

	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
)

// BulkUpdateContacts applies one canonical update to every listed contact.
// A failed identity never aborts the others; the response carries the split.
// An error is returned only when the request itself cannot be decoded.
func (r *LeadRepository) BulkUpdateContacts(ctx context.Context, req models.BulkUpdateRequest) (models.BulkUpdateResponse, error) {
	patch, err := models.PatchFromFields(req.Updates)
	if err != nil {
		return models.BulkUpdateResponse{}, fmt.Errorf("failed to decode bulk updates: %w", err)
	}

	resp := models.BulkUpdateResponse{FailedIDs: []string{}, Errors: []string{}}
	for _, raw := range req.ContactIDs {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		if err := r.updateOne(ctx, raw, patch); err != nil {
			resp.FailedCount++
			resp.FailedIDs = append(resp.FailedIDs, raw)
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", raw, err))
			continue
		}
		resp.UpdatedCount++
	}
	resp.Success = resp.FailedCount == 0
	return resp, nil
}

func (r *LeadRepository) updateOne(ctx context.Context, raw string, patch models.ContactPatch) error {
	key, err := models.ParseCompositeKey(raw)
	if err != nil {
		return err
	}
	m, cols, err := sources.TranslateFor(key.Origin, patch)
	if err != nil {
		return err
	}
	return r.UpdateRow(ctx, m.Table, key.ID, cols)
}
