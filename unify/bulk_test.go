package unify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/leadbook/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qualified() models.ContactPatch {
	s := models.CRMStatusQualified
	return models.ContactPatch{CRMStatus: &s}
}

func TestBulkUpdateFullSuccess(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)

	res, err := mgr.BulkUpdate(context.Background(), []string{"valuation_v1", "contact_c1"}, qualified(), InvalidateSilent)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, 2, res.UpdatedCount)
	assert.Equal(t, "2 contacts updated", res.Message())

	require.Len(t, mutator.bulkReqs, 1)
	assert.Equal(t, []string{"valuation_v1", "contact_c1"}, mutator.bulkReqs[0].ContactIDs)
	assert.Equal(t, map[string]any{"crm_status": "qualified"}, mutator.bulkReqs[0].Updates)

	for _, k := range []models.ContactKey{keyV1, keyC1} {
		c, _ := mgr.Store().Get(k)
		require.NotNil(t, c.CRMStatus)
		assert.Equal(t, models.CRMStatusQualified, *c.CRMStatus)
	}
	assert.True(t, mgr.Store().Stale())
}

func TestBulkUpdatePartialKeepsSucceededSubset(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	mutator.bulkFn = func(req models.BulkUpdateRequest) (models.BulkUpdateResponse, error) {
		return models.BulkUpdateResponse{
			Success:      false,
			UpdatedCount: 2,
			FailedCount:  1,
			FailedIDs:    []string{"general_g1"},
			Errors:       []string{"general_g1: row locked"},
		}, nil
	}
	before, _ := mgr.Store().Get(keyG1)

	res, err := mgr.BulkUpdate(context.Background(), []string{"valuation_v1", "contact_c1", "general_g1"}, qualified(), InvalidateSilent)
	require.NoError(t, err, "partial success is not an error")
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, []string{"general_g1"}, res.FailedKeys)
	assert.Equal(t, "2 contacts updated, 1 failed", res.Message())

	for _, k := range []models.ContactKey{keyV1, keyC1} {
		c, _ := mgr.Store().Get(k)
		require.NotNil(t, c.CRMStatus, k.String())
		assert.Equal(t, models.CRMStatusQualified, *c.CRMStatus)
	}
	after, _ := mgr.Store().Get(keyG1)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("failed identity changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, mgr.Store().Snapshot().Pending)
}

func TestBulkUpdateZeroUpdatedRollsBack(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	mutator.bulkFn = func(req models.BulkUpdateRequest) (models.BulkUpdateResponse, error) {
		return models.BulkUpdateResponse{
			FailedCount: len(req.ContactIDs),
			FailedIDs:   req.ContactIDs,
			Errors:      []string{"denied"},
		}, nil
	}
	before := mgr.Store().Contacts()

	res, err := mgr.BulkUpdate(context.Background(), []string{"valuation_v1", "contact_c1"}, qualified(), InvalidateActive)
	var mutErr *MutationError
	require.True(t, errors.As(err, &mutErr))
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 2, res.FailedCount)

	if diff := cmp.Diff(before, mgr.Store().Contacts()); diff != "" {
		t.Errorf("stream not rolled back (-want +got):\n%s", diff)
	}
}

func TestBulkUpdateTransportErrorRollsBack(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	calls := 0
	mutator.bulkFn = func(models.BulkUpdateRequest) (models.BulkUpdateResponse, error) {
		calls++
		return models.BulkUpdateResponse{}, errRemote
	}
	before := mgr.Store().Contacts()

	res, err := mgr.BulkUpdate(context.Background(), []string{"valuation_v1"}, qualified(), InvalidateSilent)
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, []string{"valuation_v1"}, res.FailedKeys)
	assert.Equal(t, 3, calls)

	if diff := cmp.Diff(before, mgr.Store().Contacts()); diff != "" {
		t.Errorf("stream not rolled back (-want +got):\n%s", diff)
	}
}

func TestBulkUpdateFailuresWithoutIDsMarkStale(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	mutator.bulkFn = func(models.BulkUpdateRequest) (models.BulkUpdateResponse, error) {
		return models.BulkUpdateResponse{UpdatedCount: 1, FailedCount: 1}, nil
	}

	res, err := mgr.BulkUpdate(context.Background(), []string{"valuation_v1", "contact_c1"}, qualified(), InvalidateActive)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, []string{}, res.FailedKeys)
}

func TestBulkUpdateKeyParsing(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	ctx := context.Background()

	_, err := mgr.BulkUpdate(ctx, []string{"valuation_v1", "nonsense"}, qualified(), InvalidateSilent)
	assert.ErrorIs(t, err, models.ErrInvalidCompositeKey)

	_, err = mgr.BulkUpdate(ctx, nil, qualified(), InvalidateSilent)
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = mgr.BulkUpdate(ctx, []string{"valuation_v1"}, models.ContactPatch{}, InvalidateSilent)
	assert.ErrorIs(t, err, ErrEmptyPatch)

	_, err = mgr.BulkUpdate(ctx, []string{"advisor_missing"}, qualified(), InvalidateSilent)
	assert.ErrorIs(t, err, ErrContactNotFound)

	assert.Empty(t, mutator.bulkReqs)

	// Underscores inside the id survive the split; duplicates collapse.
	res, err := mgr.BulkUpdate(ctx, []string{"collaborator_col_1_x", "collaborator_col_1_x"}, models.ContactPatch{Status: ptr("reviewed")}, InvalidateSilent)
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Equal(t, []string{"collaborator_col_1_x"}, mutator.bulkReqs[0].ContactIDs)

	c, _ := mgr.Store().Get(models.ContactKey{Origin: models.OriginCollaborator, ID: "col_1_x"})
	assert.Equal(t, "reviewed", c.Status)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, classify(3, 0))
	assert.Equal(t, OutcomePartial, classify(2, 1))
	assert.Equal(t, OutcomeFailed, classify(0, 3))
	assert.Equal(t, OutcomeFailed, classify(0, 0))
}
