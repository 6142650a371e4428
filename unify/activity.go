// ABOUTME: Activity timeline of confirmed and rolled back mutations
// ABOUTME: Bounded in-memory journal shared by the web UI and the MCP tools
package unify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityVerb is the action a mutation performed.
type ActivityVerb string

const (
	VerbUpdated     ActivityVerb = "updated"
	VerbDeleted     ActivityVerb = "deleted"
	VerbBulkUpdated ActivityVerb = "bulk_updated"
)

// Activity is one entry in the timeline.
type Activity struct {
	ID         string         `json:"id"`
	MutationID string         `json:"mutation_id"`
	Actor      string         `json:"actor,omitempty"`
	Verb       ActivityVerb   `json:"verb"`
	Keys       []string       `json:"keys"`
	Changes    map[string]any `json:"changes,omitempty"`
	Outcome    string         `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	At         time.Time      `json:"at"`
}

// Journal keeps the most recent activities. A nil *Journal records nothing.
type Journal struct {
	mu      sync.Mutex
	actor   string
	limit   int
	entries []Activity
}

// NewJournal keeps up to limit entries attributed to actor.
func NewJournal(actor string, limit int) *Journal {
	if limit <= 0 {
		limit = 200
	}
	return &Journal{actor: actor, limit: limit}
}

func (j *Journal) record(a Activity) {
	if j == nil {
		return
	}
	a.ID = uuid.New().String()
	a.Actor = j.actor

	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, a)
	if over := len(j.entries) - j.limit; over > 0 {
		j.entries = append([]Activity(nil), j.entries[over:]...)
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (j *Journal) Recent(n int) []Activity {
	if j == nil {
		return []Activity{}
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]Activity, 0, n)
	for i := len(j.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.entries[i])
	}
	return out
}
