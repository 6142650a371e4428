// ABOUTME: Optimistic mutation manager: patch the stream first, call the datastore, then reconcile
// ABOUTME: Failures roll back to the pre-mutation state; success applies the caller's invalidation policy
package unify

import (
	"context"
	"fmt"

	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Invalidation is the cache policy applied after a confirmed mutation.
type Invalidation int

const (
	// InvalidateSilent marks the stream stale; the next natural fetch reconciles.
	InvalidateSilent Invalidation = iota
	// InvalidateActive refetches immediately.
	InvalidateActive
)

func (i Invalidation) String() string {
	if i == InvalidateActive {
		return "active"
	}
	return "silent"
}

// ParseInvalidation accepts "silent" or "active".
func ParseInvalidation(s string) (Invalidation, error) {
	switch s {
	case "", "silent":
		return InvalidateSilent, nil
	case "active":
		return InvalidateActive, nil
	default:
		return InvalidateSilent, fmt.Errorf("unknown invalidation policy %q", s)
	}
}

// Manager is the only writer of optimistic state in the Store.
type Manager struct {
	store   *Store
	mutator Mutator
	locks   *keyLocks
	opts    options
}

// NewManager creates a mutation manager over store.
func NewManager(store *Store, mutator Mutator, opts ...Option) *Manager {
	return &Manager{
		store:   store,
		mutator: mutator,
		locks:   newKeyLocks(),
		opts:    buildOptions(opts),
	}
}

// Store returns the store this manager mutates.
func (m *Manager) Store() *Store { return m.store }

// Update applies patch to one contact optimistically and writes the native
// columns of its source table. On remote failure the stream is rolled back
// and a *MutationError is returned.
func (m *Manager) Update(ctx context.Context, key models.ContactKey, patch models.ContactPatch, policy Invalidation) error {
	table, cols, err := m.translate(key, patch)
	if err != nil {
		return err
	}

	kind := "update"
	if patch.Removes() {
		kind = "delete"
	}
	id := ulid.Make().String()
	logger := m.opts.logger.With(
		zap.String("mutation_id", id),
		zap.String("kind", kind),
		zap.String("key", key.String()))

	verb := VerbUpdated
	if kind == "delete" {
		verb = VerbDeleted
	}
	activity := Activity{MutationID: id, Verb: verb, Keys: []string{key.String()}, Changes: cols}

	entry, err := m.store.begin(id, []models.ContactKey{key}, patch, true)
	if err != nil {
		return fmt.Errorf("failed to apply optimistic %s to %s: %w", kind, key, err)
	}
	logger.Debug("optimistic patch applied")

	err = m.remote(ctx, []models.ContactKey{key}, func() error {
		_, err := retry(ctx, m.opts, kind+"_row", func() (struct{}, error) {
			return struct{}{}, m.mutator.UpdateRow(ctx, table, key.ID, cols)
		})
		return err
	})
	if err != nil {
		m.store.rollback(entry)
		m.opts.metrics.observeMutation(kind, "failed")
		m.opts.metrics.observeRollback(kind)
		logger.Warn("mutation failed, rolled back", zap.Error(err))
		activity.Outcome, activity.Error, activity.At = "rolled_back", err.Error(), m.opts.now()
		m.opts.journal.record(activity)
		return &MutationError{MutationID: id, Keys: []models.ContactKey{key}, Err: err}
	}

	m.store.commit(entry, []models.ContactKey{key})
	m.opts.metrics.observeMutation(kind, "success")
	logger.Debug("mutation confirmed", zap.Stringer("invalidation", policy))
	activity.Outcome, activity.At = "confirmed", m.opts.now()
	m.opts.journal.record(activity)
	m.invalidate(ctx, policy, logger)
	return nil
}

// remote runs call holding the locks of keys so writes to one identity reach
// the datastore one at a time. The optimistic patch is already visible; only
// the remote step waits.
func (m *Manager) remote(ctx context.Context, keys []models.ContactKey, call func() error) error {
	unlock, err := m.locks.lock(ctx, keys)
	if err != nil {
		return fmt.Errorf("failed waiting for pending mutation: %w", err)
	}
	defer unlock()
	return call()
}

// Delete soft-deletes one contact. The record disappears from the stream
// immediately and returns if the remote call fails.
func (m *Manager) Delete(ctx context.Context, key models.ContactKey, policy Invalidation) error {
	deleted := true
	return m.Update(ctx, key, models.ContactPatch{Deleted: &deleted}, policy)
}

// Activity returns up to n recent mutation outcomes, newest first.
func (m *Manager) Activity(n int) []Activity {
	return m.opts.journal.Recent(n)
}

// RefreshIfStale refetches only when the stream was never loaded or was
// marked stale. It reports whether a fetch ran.
func (m *Manager) RefreshIfStale(ctx context.Context) (bool, error) {
	if m.store.Loaded() && !m.store.Stale() {
		return false, nil
	}
	return true, m.store.Refetch(ctx)
}

func (m *Manager) translate(key models.ContactKey, patch models.ContactPatch) (string, map[string]any, error) {
	if patch.IsEmpty() {
		return "", nil, ErrEmptyPatch
	}
	cm, cols, err := sources.TranslateFor(key.Origin, patch)
	if err != nil {
		return "", nil, fmt.Errorf("failed to translate patch for %s: %w", key, err)
	}
	if len(cols) == 0 {
		return "", nil, ErrEmptyPatch
	}
	return cm.Table, cols, nil
}

func (m *Manager) invalidate(ctx context.Context, policy Invalidation, logger *zap.Logger) {
	switch policy {
	case InvalidateActive:
		if err := m.store.Refetch(ctx); err != nil {
			logger.Warn("refetch after mutation failed", zap.Error(err))
		}
	default:
		m.store.MarkStale()
	}
}
