// ABOUTME: Tests for the web UI and JSON API
// ABOUTME: Drives the gin router with httptest against a seeded SQLite database
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harperreed/leadbook/db"
	"github.com/harperreed/leadbook/handlers"
	"github.com/harperreed/leadbook/unify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var seedTime = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func setupServer(t *testing.T, metrics http.Handler) *gin.Engine {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo := db.NewLeadRepository(database, db.DriverSQLite)
	_, err = db.Seed(context.Background(), repo, seedTime)
	require.NoError(t, err)

	store := unify.NewStore(unify.NewAggregator(repo, repo))
	t.Cleanup(store.Close)
	mgr := unify.NewManager(store, repo,
		unify.WithRetry(unify.RetryPolicy{MaxAttempts: 1}),
		unify.WithPermanentErrors(db.ErrRowNotFound),
		unify.WithJournal(unify.NewJournal("web", 20)))

	srv, err := NewServer(handlers.NewContactHandlers(mgr, nil, unify.InvalidateSilent, nil), nil, metrics)
	require.NoError(t, err)
	srv.now = func() time.Time { return seedTime }
	return srv.Router()
}

func do(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func keyOf(t *testing.T, router *gin.Engine, query string) string {
	t.Helper()
	w := do(t, router, http.MethodGet, "/api/contacts?"+query, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[handlers.ListContactsOutput](t, w)
	require.NotEmpty(t, out.Contacts, query)
	return out.Contacts[0].Key
}

func TestDashboardPage(t *testing.T) {
	router := setupServer(t, nil)

	w := do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "LEADBOOK DASHBOARD")
	assert.Contains(t, w.Body.String(), "9 leads")
}

func TestContactsPage(t *testing.T) {
	router := setupServer(t, nil)

	w := do(t, router, http.MethodGet, "/contacts?origin=valuation", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Jordi Puig")
	assert.Contains(t, body, "Showing 2 of 2 contact(s)")
	assert.Contains(t, body, `<option value="valuation" selected>`)
	assert.NotContains(t, body, "Elena Soto")
}

func TestListContactsAPI(t *testing.T) {
	router := setupServer(t, nil)

	w := do(t, router, http.MethodGet, "/api/contacts?unique_only=true&limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[handlers.ListContactsOutput](t, w)
	assert.Equal(t, 7, out.Total)
	assert.Len(t, out.Contacts, 3)

	w = do(t, router, http.MethodGet, "/api/contacts?revenue_min=1000000", "")
	require.Equal(t, http.StatusOK, w.Code)
	out = decode[handlers.ListContactsOutput](t, w)
	assert.Equal(t, "Marta Gil", out.Contacts[0].Name)

	tests := []string{
		"/api/contacts?origin=newsletter",
		"/api/contacts?date_from=yesterday",
		"/api/contacts?limit=ten",
		"/api/contacts?revenue_min=lots",
		"/api/contacts?preset=missing",
	}
	for _, target := range tests {
		w := do(t, router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), "error", target)
	}
}

func TestStatsAPI(t *testing.T) {
	router := setupServer(t, nil)

	w := do(t, router, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[handlers.ContactStatsOutput](t, w)
	assert.Equal(t, 9, out.Total)
	assert.Equal(t, 7, out.UniqueContacts)
	assert.Equal(t, 3, out.EmailsSent)
	assert.Equal(t, 2, out.Qualified)
}

func TestExportAndGraph(t *testing.T) {
	router := setupServer(t, nil)

	w := do(t, router, http.MethodGet, "/api/export.csv?origin=general", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "leads-2024-06-15.csv")
	assert.Len(t, strings.Split(strings.TrimSpace(w.Body.String()), "\n"), 3)

	w = do(t, router, http.MethodGet, "/api/graph.svg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")
}

func TestUpdateContactAPI(t *testing.T) {
	router := setupServer(t, nil)
	key := keyOf(t, router, "search=Jordi")

	w := do(t, router, http.MethodPatch, "/api/contacts/"+key, `{"crm_status":"qualified"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[handlers.ContactOutput](t, w)
	assert.Equal(t, "qualified", out.CRMStatus)
	assert.Equal(t, "hot", out.Priority)

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"empty patch", "/api/contacts/" + key, `{}`, http.StatusBadRequest},
		{"bad json", "/api/contacts/" + key, `{"name":`, http.StatusBadRequest},
		{"bad email", "/api/contacts/" + key, `{"email":"nope"}`, http.StatusBadRequest},
		{"bad key", "/api/contacts/nonsense", `{"name":"x"}`, http.StatusBadRequest},
		{"missing", "/api/contacts/advisor_missing", `{"name":"x"}`, http.StatusNotFound},
		{"unmapped field", "/api/contacts/" + keyOf(t, router, "origin=collaborator"), `{"crm_status":"won"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPatch, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestBulkUpdateAPI(t *testing.T) {
	router := setupServer(t, nil)
	valuation := keyOf(t, router, "search=Jordi")
	collaborator := keyOf(t, router, "origin=collaborator")

	body := `{"keys":["` + valuation + `","` + collaborator + `"],"patch":{"crm_status":"proposal"}}`
	w := do(t, router, http.MethodPost, "/api/contacts/bulk", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[handlers.BulkUpdateContactsOutput](t, w)
	assert.Equal(t, "partial", out.Outcome)
	assert.Equal(t, []string{collaborator}, out.FailedKeys)

	w = do(t, router, http.MethodPost, "/api/contacts/bulk", `{"keys":["`+collaborator+`"],"patch":{"crm_status":"won"}}`)
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	failed := decode[handlers.BulkUpdateContactsOutput](t, w)
	assert.Equal(t, "failed", failed.Outcome)
	assert.Equal(t, []string{collaborator}, failed.FailedKeys)
	assert.Len(t, failed.Errors, 1)

	w = do(t, router, http.MethodPost, "/api/contacts/bulk", `{"keys":[],"patch":{"name":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteContactAPI(t *testing.T) {
	router := setupServer(t, nil)
	key := keyOf(t, router, "origin=advisor")

	w := do(t, router, http.MethodDelete, "/api/contacts/"+key+"?invalidation=active", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodDelete, "/api/contacts/"+key, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodDelete, "/api/contacts/"+key+"?invalidation=sometimes", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/activity?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	activity := decode[handlers.RecentActivityOutput](t, w)
	require.Len(t, activity.Activity, 1)
	assert.Equal(t, unify.VerbDeleted, activity.Activity[0].Verb)
	assert.Equal(t, "confirmed", activity.Activity[0].Outcome)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/activity?limit=many", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupServer(t, nil)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/metrics", "").Code)

	reg := prometheus.NewRegistry()
	unify.NewMetrics(reg)
	router = setupServer(t, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	w := do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
