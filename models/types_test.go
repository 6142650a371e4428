// ABOUTME: Tests for the unified contact model
// ABOUTME: Validates cloning, patch application and canonical field round-trips
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestContactCloneSharesNoPointers(t *testing.T) {
	status := CRMStatusQualified
	original := Contact{
		ID:             "v1",
		Origin:         OriginValuation,
		Email:          "a@x.com",
		CRMStatus:      &status,
		AssignedTo:     ptr("owner-1"),
		Revenue:        ptr(100.0),
		FinalValuation: ptr(2_000_000.0),
		CompanyID:      ptr("co-1"),
	}

	clone := original.Clone()
	*clone.CRMStatus = CRMStatusLost
	*clone.AssignedTo = "owner-2"
	*clone.Revenue = 5
	*clone.CompanyID = "co-2"

	assert.Equal(t, CRMStatusQualified, *original.CRMStatus)
	assert.Equal(t, "owner-1", *original.AssignedTo)
	assert.Equal(t, 100.0, *original.Revenue)
	assert.Equal(t, "co-1", *original.CompanyID)
}

func TestIdentityKey(t *testing.T) {
	a := Contact{ID: "1", Origin: OriginContact, Email: "  Alice@Example.COM "}
	assert.Equal(t, "alice@example.com", a.IdentityKey())

	anon1 := Contact{ID: "1", Origin: OriginContact}
	anon2 := Contact{ID: "1", Origin: OriginGeneral}
	assert.NotEqual(t, anon1.IdentityKey(), anon2.IdentityKey())
}

func TestPatchApply(t *testing.T) {
	c := Contact{
		ID:             "c1",
		Origin:         OriginContact,
		Name:           "Old",
		AssignedTo:     ptr("owner-1"),
		AssignedToName: "Owner One",
		Priority:       PriorityCold,
	}

	status := CRMStatusQualified
	ContactPatch{Name: ptr("New"), CRMStatus: &status}.Apply(&c)

	assert.Equal(t, "New", c.Name)
	assert.Equal(t, PriorityHot, c.Priority)
	assert.Equal(t, "Owner One", c.AssignedToName)

	ContactPatch{AssignedTo: ptr("owner-2")}.Apply(&c)
	assert.Equal(t, "owner-2", *c.AssignedTo)
	assert.Empty(t, c.AssignedToName)

	ContactPatch{AssignedTo: ptr("")}.Apply(&c)
	assert.Nil(t, c.AssignedTo)
}

func TestPatchFieldsRoundTrip(t *testing.T) {
	status := CRMStatusOpportunity
	patch := ContactPatch{
		Status:         ptr("contacted"),
		CRMStatus:      &status,
		EmailSent:      ptr(true),
		AssignedToName: ptr("display only"),
	}

	fields, err := patch.Fields()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"status":     "contacted",
		"crm_status": "opportunity",
		"email_sent": true,
	}, fields)

	decoded, err := PatchFromFields(fields)
	require.NoError(t, err)
	assert.Equal(t, "contacted", *decoded.Status)
	assert.Equal(t, CRMStatusOpportunity, *decoded.CRMStatus)
	assert.Nil(t, decoded.AssignedToName)
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, ContactPatch{}.IsEmpty())
	assert.False(t, ContactPatch{Deleted: ptr(true)}.IsEmpty())
	assert.True(t, ContactPatch{Deleted: ptr(true)}.Removes())
}

func TestFiltersMerge(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := Filters{Origin: OriginValuation, Sector: "tech", UniqueOnly: true}
	merged := base.Merge(Filters{Sector: "retail", DateFrom: &from, RevenueMin: ptr(10.0)})

	assert.Equal(t, OriginValuation, merged.Origin)
	assert.Equal(t, "retail", merged.Sector)
	assert.True(t, merged.UniqueOnly)
	assert.Equal(t, from, *merged.DateFrom)
	assert.Equal(t, 10.0, *merged.RevenueMin)
}

func TestNextCRMStatusWraps(t *testing.T) {
	assert.Equal(t, CRMStatusContacted, NextCRMStatus(CRMStatusNew))
	assert.Equal(t, CRMStatusNew, NextCRMStatus(CRMStatusArchived))
	assert.Equal(t, CRMStatusNew, NextCRMStatus(""))
}
