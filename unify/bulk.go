// ABOUTME: Bulk mutation coordinator over the bulk contact update procedure
// ABOUTME: Rollback granularity follows the per-identity failures the datastore reports
package unify

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/leadbook/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Outcome classifies a bulk mutation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// BulkResult is what the caller reports to the user. A partial outcome is
// not an error.
type BulkResult struct {
	MutationID   string   `json:"mutation_id"`
	Outcome      Outcome  `json:"outcome"`
	UpdatedCount int      `json:"updated_count"`
	FailedCount  int      `json:"failed_count"`
	FailedKeys   []string `json:"failed_keys"`
	Errors       []string `json:"errors"`
}

// Message renders a one-line summary suitable for a notification.
func (r BulkResult) Message() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("%d contacts updated", r.UpdatedCount)
	case OutcomePartial:
		return fmt.Sprintf("%d contacts updated, %d failed", r.UpdatedCount, r.FailedCount)
	default:
		return fmt.Sprintf("update failed for all %d contacts", r.FailedCount)
	}
}

func classify(updated, failed int) Outcome {
	switch {
	case updated == 0:
		return OutcomeFailed
	case failed > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

// BulkUpdate applies patch to every composite key ("<origin>_<id>") in one
// remote call. Keys the datastore reports as failed are reverted; the rest
// keep the patch. If nothing succeeded the whole stream is rolled back and a
// *MutationError accompanies the result.
func (m *Manager) BulkUpdate(ctx context.Context, compositeKeys []string, patch models.ContactPatch, policy Invalidation) (BulkResult, error) {
	keys, err := models.ParseCompositeKeys(compositeKeys)
	if err != nil {
		return BulkResult{}, err
	}
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return BulkResult{}, ErrNoTargets
	}
	if patch.IsEmpty() {
		return BulkResult{}, ErrEmptyPatch
	}
	fields, err := patch.Fields()
	if err != nil {
		return BulkResult{}, err
	}
	if len(fields) == 0 {
		return BulkResult{}, ErrEmptyPatch
	}

	id := ulid.Make().String()
	logger := m.opts.logger.With(zap.String("mutation_id", id), zap.Int("targets", len(keys)))

	entry, err := m.store.begin(id, keys, patch, false)
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to apply optimistic bulk update: %w", err)
	}

	req := models.BulkUpdateRequest{ContactIDs: keyStrings(keys), Updates: fields}
	var resp models.BulkUpdateResponse
	err = m.remote(ctx, keys, func() error {
		var err error
		resp, err = retry(ctx, m.opts, "bulk_update", func() (models.BulkUpdateResponse, error) {
			return m.mutator.BulkUpdateContacts(ctx, req)
		})
		return err
	})
	if err != nil {
		m.store.rollback(entry)
		m.opts.metrics.observeMutation("bulk", string(OutcomeFailed))
		m.opts.metrics.observeRollback("bulk")
		logger.Warn("bulk update failed, rolled back", zap.Error(err))
		result := BulkResult{
			MutationID:  id,
			Outcome:     OutcomeFailed,
			FailedCount: len(keys),
			FailedKeys:  req.ContactIDs,
			Errors:      []string{err.Error()},
		}
		m.journalBulk(req.ContactIDs, result, fields)
		return result, &MutationError{MutationID: id, Keys: keys, Err: err}
	}

	result := BulkResult{
		MutationID:   id,
		Outcome:      classify(resp.UpdatedCount, resp.FailedCount),
		UpdatedCount: resp.UpdatedCount,
		FailedCount:  resp.FailedCount,
		FailedKeys:   nonNil(resp.FailedIDs),
		Errors:       nonNil(resp.Errors),
	}
	m.opts.metrics.observeMutation("bulk", string(result.Outcome))
	m.journalBulk(req.ContactIDs, result, fields)

	switch result.Outcome {
	case OutcomeFailed:
		m.store.rollback(entry)
		m.opts.metrics.observeRollback("bulk")
		logger.Warn("bulk update rejected for every target, rolled back", zap.Strings("errors", result.Errors))
		return result, &MutationError{MutationID: id, Keys: keys, Err: errors.New(result.Message())}
	case OutcomePartial:
		m.store.commit(entry, succeededKeys(keys, resp.FailedIDs))
		logger.Warn("bulk update partially applied",
			zap.Int("updated", result.UpdatedCount),
			zap.Int("failed", result.FailedCount),
			zap.Strings("failed_keys", result.FailedKeys))
		if len(resp.FailedIDs) == 0 {
			// Failures without ids cannot be reverted locally; force reconciliation.
			m.store.MarkStale()
		}
	default:
		m.store.commit(entry, keys)
		logger.Debug("bulk update confirmed", zap.Int("updated", result.UpdatedCount))
	}

	m.invalidate(ctx, policy, logger)
	return result, nil
}

func (m *Manager) journalBulk(keys []string, result BulkResult, fields map[string]any) {
	a := Activity{
		MutationID: result.MutationID,
		Verb:       VerbBulkUpdated,
		Keys:       keys,
		Changes:    fields,
		Outcome:    string(result.Outcome),
		At:         m.opts.now(),
	}
	if len(result.Errors) > 0 {
		a.Error = result.Errors[0]
	}
	m.opts.journal.record(a)
}

// succeededKeys removes the reported failures from keys. Failure ids that do
// not parse are ignored.
func succeededKeys(keys []models.ContactKey, failedIDs []string) []models.ContactKey {
	failed := make(map[models.ContactKey]bool, len(failedIDs))
	for _, raw := range failedIDs {
		if k, err := models.ParseCompositeKey(raw); err == nil {
			failed[k] = true
		}
	}
	out := make([]models.ContactKey, 0, len(keys))
	for _, k := range keys {
		if !failed[k] {
			out = append(out, k)
		}
	}
	return out
}

func uniqueKeys(keys []models.ContactKey) []models.ContactKey {
	seen := make(map[models.ContactKey]bool, len(keys))
	out := make([]models.ContactKey, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func keyStrings(keys []models.ContactKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
