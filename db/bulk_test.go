// ABOUTME: Tests for the bulk contact update procedure
// ABOUTME: Covers full success, partial failure from bad keys and unmapped fields
package db

import (
	"context"
	"testing"

	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
)

func TestBulkUpdateContactsFullSuccess(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewLeadRepository(db, DriverSQLite)
	ctx := context.Background()

	v, _ := repo.InsertLead(ctx, models.OriginValuation, sources.Record{"email": "a@example.com"})
	c, _ := repo.InsertLead(ctx, models.OriginContact, sources.Record{"email": "b@example.com"})

	resp, err := repo.BulkUpdateContacts(ctx, models.BulkUpdateRequest{
		ContactIDs: []string{"valuation_" + v, "contact_" + c},
		Updates:    map[string]any{"crm_status": "qualified"},
	})
	if err != nil {
		t.Fatalf("BulkUpdateContacts failed: %v", err)
	}
	if !resp.Success || resp.UpdatedCount != 2 || resp.FailedCount != 0 {
		t.Errorf("Unexpected response: %+v", resp)
	}

	var status string
	if err := db.QueryRow("SELECT crm_status FROM contact_leads WHERE id = ?", c).Scan(&status); err != nil {
		t.Fatalf("Failed to read row: %v", err)
	}
	if status != "qualified" {
		t.Errorf("Expected qualified, got %s", status)
	}
}

func TestBulkUpdateContactsPartialFailure(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewLeadRepository(db, DriverSQLite)
	ctx := context.Background()

	v, _ := repo.InsertLead(ctx, models.OriginValuation, sources.Record{"email": "a@example.com"})
	collab, _ := repo.InsertLead(ctx, models.OriginCollaborator, sources.Record{"email": "c@example.com"})

	ids := []string{
		"valuation_" + v,
		"collaborator_" + collab, // no crm_status column
		"valuation_missing-row",
		"garbage",
	}
	resp, err := repo.BulkUpdateContacts(ctx, models.BulkUpdateRequest{
		ContactIDs: ids,
		Updates:    map[string]any{"crm_status": "won"},
	})
	if err != nil {
		t.Fatalf("BulkUpdateContacts failed: %v", err)
	}
	if resp.Success {
		t.Error("Expected Success=false on partial failure")
	}
	if resp.UpdatedCount != 1 || resp.FailedCount != 3 {
		t.Errorf("Expected 1 updated / 3 failed, got %d / %d", resp.UpdatedCount, resp.FailedCount)
	}
	if len(resp.FailedIDs) != 3 || len(resp.Errors) != 3 {
		t.Errorf("Expected 3 failed ids and errors, got %v / %v", resp.FailedIDs, resp.Errors)
	}
	for _, failed := range resp.FailedIDs {
		if failed == ids[0] {
			t.Errorf("Successful id %s reported as failed", failed)
		}
	}
}

func TestBulkUpdateContactsUUIDWithUnderscores(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewLeadRepository(db, DriverSQLite)
	ctx := context.Background()

	id, err := repo.InsertLead(ctx, models.OriginAdvisor, sources.Record{"id": "abc_def_123", "email": "u@example.com"})
	if err != nil {
		t.Fatalf("InsertLead failed: %v", err)
	}

	resp, err := repo.BulkUpdateContacts(ctx, models.BulkUpdateRequest{
		ContactIDs: []string{"advisor_" + id},
		Updates:    map[string]any{"status": "contacted"},
	})
	if err != nil {
		t.Fatalf("BulkUpdateContacts failed: %v", err)
	}
	if resp.UpdatedCount != 1 {
		t.Errorf("Expected update through underscored id, got %+v", resp)
	}
}
