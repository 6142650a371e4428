// ABOUTME: Store owns the merged contact stream: last server state plus pending optimistic patches
// ABOUTME: Fetch epochs discard superseded reads; subscribers are notified on every change
package unify

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/harperreed/leadbook/models"
	"go.uber.org/zap"
)

// ErrFetchSuperseded is returned by Refetch when a newer fetch or a mutation
// started while it was in flight; its result was discarded.
var ErrFetchSuperseded = errors.New("fetch superseded")

// Fetcher produces a fresh merged stream. *Aggregator implements it.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]models.Contact, error)
}

// View is an immutable copy of the store state handed to readers.
type View struct {
	Contacts []models.Contact
	Loaded   bool
	Stale    bool
	Pending  int
	Err      error
	Version  uint64
}

type patchEntry struct {
	id          string
	keys        []models.ContactKey
	patch       models.ContactPatch
	snapshot    []models.Contact
	baseVersion uint64
	// exclusive records that no other patch was pending at begin, so the
	// snapshot is pure server state.
	exclusive bool
}

func (e *patchEntry) targets(k models.ContactKey) bool {
	return slices.Contains(e.keys, k)
}

// Store is the single owner of the merged stream. The visible stream is
// always base with every pending journal entry applied in order.
type Store struct {
	fetcher Fetcher
	opts    options

	mu          sync.Mutex
	base        []models.Contact
	baseVersion uint64
	journal     []*patchEntry
	visible     []models.Contact
	loaded      bool
	stale       bool
	err         error
	epoch       uint64
	cancelFetch context.CancelFunc
	version     uint64
	subs        map[int]func(View)
	nextSub     int

	notifyMu  sync.Mutex
	delivered uint64
}

// NewStore creates an empty store backed by fetcher.
func NewStore(fetcher Fetcher, opts ...Option) *Store {
	return &Store{
		fetcher: fetcher,
		opts:    buildOptions(opts),
		subs:    make(map[int]func(View)),
	}
}

// Refetch replaces the server state with a fresh aggregation. On failure the
// last good stream is kept and the error is recorded for Err.
func (s *Store) Refetch(ctx context.Context) error {
	s.mu.Lock()
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	s.epoch++
	epoch := s.epoch
	fctx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	s.mu.Unlock()
	defer cancel()

	stream, err := s.fetcher.FetchAll(fctx)

	s.mu.Lock()
	if s.epoch != epoch {
		s.stale = true
		s.mu.Unlock()
		s.opts.logger.Debug("discarding superseded fetch")
		return ErrFetchSuperseded
	}
	s.cancelFetch = nil
	if err != nil {
		s.err = err
		s.version++
		view := s.viewLocked()
		s.mu.Unlock()
		s.notify(view)
		return err
	}

	s.base = stream
	s.baseVersion++
	s.loaded = true
	s.stale = false
	s.err = nil
	s.rebuildLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return nil
}

// MarkStale flags the stream for a lazy refresh without fetching.
func (s *Store) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.version++
	view := s.viewLocked()
	s.mu.Unlock()
	s.notify(view)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Contacts returns a deep copy of the visible stream.
func (s *Store) Contacts() []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneContacts(s.visible)
}

// Get returns a copy of one visible record.
func (s *Store) Get(key models.ContactKey) (models.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.visible {
		if c.Key() == key {
			return c.Clone(), true
		}
	}
	return models.Contact{}, false
}

// Err returns the last fetch error, or nil after a successful fetch.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Subscribe registers fn for every state change and returns an unsubscribe func.
// fn runs outside the store lock and may call back into the store.
func (s *Store) Subscribe(fn func(View)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close cancels any in-flight fetch.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.epoch++
}

// begin applies an optimistic patch synchronously. In-flight reads are
// cancelled first so they cannot overwrite the patch with older data.
// With requireAll every key must be visible; otherwise at least one.
func (s *Store) begin(id string, keys []models.ContactKey, patch models.ContactPatch, requireAll bool) (*patchEntry, error) {
	s.mu.Lock()

	found := 0
	for _, k := range keys {
		if s.visibleIndexLocked(k) >= 0 {
			found++
		} else if requireAll {
			s.mu.Unlock()
			return nil, ErrContactNotFound
		}
	}
	if found == 0 {
		s.mu.Unlock()
		return nil, ErrContactNotFound
	}

	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.epoch++

	entry := &patchEntry{
		id:          id,
		keys:        keys,
		patch:       patch,
		snapshot:    models.CloneContacts(s.visible),
		baseVersion: s.baseVersion,
		exclusive:   len(s.journal) == 0,
	}
	s.journal = append(s.journal, entry)
	s.rebuildLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return entry, nil
}

// commit confirms entry for the listed keys: their patch is folded into the
// server state. Keys not listed fall back to their server value.
func (s *Store) commit(entry *patchEntry, succeeded []models.ContactKey) {
	s.mu.Lock()
	s.removeEntryLocked(entry)
	if len(succeeded) > 0 {
		s.base = foldPatch(s.base, entry.patch, succeeded)
		s.baseVersion++
	}
	s.rebuildLocked()
	view := s.viewLocked()
	s.mu.Unlock()
	s.notify(view)
}

// rollback discards entry. When the entry was the only pending patch for its
// whole life and server state did not move, the stream is restored to the
// exact snapshot. Otherwise it is rebuilt from server state and the remaining
// pending patches, so neither earlier failed patches nor later ones leak in.
func (s *Store) rollback(entry *patchEntry) {
	s.mu.Lock()
	s.removeEntryLocked(entry)
	if entry.exclusive && len(s.journal) == 0 && s.baseVersion == entry.baseVersion {
		s.visible = models.CloneContacts(entry.snapshot)
		s.version++
		s.opts.metrics.setStream(len(s.visible), 0)
	} else {
		s.rebuildLocked()
	}
	view := s.viewLocked()
	s.mu.Unlock()
	s.notify(view)
}

func (s *Store) removeEntryLocked(entry *patchEntry) {
	s.journal = slices.DeleteFunc(s.journal, func(e *patchEntry) bool { return e == entry })
}

func (s *Store) visibleIndexLocked(k models.ContactKey) int {
	for i := range s.visible {
		if s.visible[i].Key() == k {
			return i
		}
	}
	return -1
}

// rebuildLocked recomputes the visible stream as a full replacement.
func (s *Store) rebuildLocked() {
	visible := models.CloneContacts(s.base)
	for _, entry := range s.journal {
		visible = applyEntry(visible, entry)
	}
	annotateOccurrences(visible)
	s.visible = visible
	s.version++
	s.opts.metrics.setStream(len(visible), len(s.journal))
}

func applyEntry(stream []models.Contact, entry *patchEntry) []models.Contact {
	if entry.patch.Removes() {
		return slices.DeleteFunc(stream, func(c models.Contact) bool { return entry.targets(c.Key()) })
	}
	for i := range stream {
		if entry.targets(stream[i].Key()) {
			entry.patch.Apply(&stream[i])
		}
	}
	return stream
}

func foldPatch(base []models.Contact, patch models.ContactPatch, keys []models.ContactKey) []models.Contact {
	out := models.CloneContacts(base)
	return applyEntry(out, &patchEntry{keys: keys, patch: patch})
}

func (s *Store) viewLocked() View {
	return View{
		Contacts: models.CloneContacts(s.visible),
		Loaded:   s.loaded,
		Stale:    s.stale,
		Pending:  len(s.journal),
		Err:      s.err,
		Version:  s.version,
	}
}

// notify delivers view to subscribers unless a newer view already went out.
func (s *Store) notify(view View) {
	s.mu.Lock()
	subs := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if view.Version <= s.delivered {
		return
	}
	s.delivered = view.Version
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.opts.logger.Error("store subscriber panicked", zap.Any("panic", r))
				}
			}()
			fn(view)
		}()
	}
}
