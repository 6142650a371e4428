// ABOUTME: Wire shapes of the bulk contact update remote procedure
// ABOUTME: Partial failure is a structured outcome here, not an error
package models

// BulkUpdateRequest targets composite keys ("<origin>_<id>") with canonical field updates.
type BulkUpdateRequest struct {
	ContactIDs []string       `json:"contact_ids"`
	Updates    map[string]any `json:"updates"`
}

// BulkUpdateResponse reports per-identity success and failure.
type BulkUpdateResponse struct {
	Success      bool     `json:"success"`
	UpdatedCount int      `json:"updated_count"`
	FailedCount  int      `json:"failed_count"`
	FailedIDs    []string `json:"failed_ids"`
	Errors       []string `json:"errors"`
}
