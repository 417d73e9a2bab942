// Package store keeps the tracker client's local copy of clients and time
// entries. Mutations are applied locally first and sent to the backend
// afterwards; when the backend refuses, the touched records are put back the
// way they were.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"time-ledger/internal/tracker"

	"github.com/google/uuid"
)

var (
	ErrNoActiveEntry = errors.New("no active entry")
	ErrNotFound      = errors.New("record not found")
	ErrPending       = errors.New("record is still being saved")
)

// Backend is the remote side of the store.
type Backend interface {
	ListClients(ctx context.Context) ([]tracker.Client, error)
	ListEntries(ctx context.Context) ([]tracker.TimeEntry, error)
	CreateClient(ctx context.Context, name, color string) (tracker.Client, error)
	DeleteClient(ctx context.Context, id string) error
	CreateEntry(ctx context.Context, e tracker.TimeEntry) (tracker.TimeEntry, error)
	CreateEntries(ctx context.Context, es []tracker.TimeEntry) ([]tracker.TimeEntry, error)
	UpdateEntry(ctx context.Context, e tracker.TimeEntry) (tracker.TimeEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// Store is safe for concurrent use. The lock is not held while the backend
// is called, so readers see optimistic state immediately.
type Store struct {
	backend Backend
	now     func() time.Time
	loc     *time.Location
	logger  *log.Logger

	mu      sync.Mutex
	clients []tracker.Client
	entries []tracker.TimeEntry // newest start first
	pending map[string]bool     // temporary ids awaiting a server id
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the location entry dates and filters are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets where rollbacks are reported. nil discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		s.logger = l
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		loc:     time.Local,
		logger:  log.Default(),
		pending: map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State is a point-in-time copy of the store.
type State struct {
	Clients []tracker.Client
	Entries []tracker.TimeEntry
	Active  *tracker.TimeEntry
}

// Load replaces local state with the backend's.
func (s *Store) Load(ctx context.Context) error {
	clients, err := s.backend.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("load clients: %w", err)
	}
	entries, err := s.backend.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = clients
	s.entries = make([]tracker.TimeEntry, 0, len(entries))
	for _, e := range entries {
		e.Date = tracker.DateOf(e.StartTime, s.loc)
		s.entries = append(s.entries, e)
	}
	s.sortEntries()
	s.pending = map[string]bool{}
	return nil
}

// Snapshot returns copies of the current clients and entries.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Clients: append([]tracker.Client(nil), s.clients...),
		Entries: make([]tracker.TimeEntry, len(s.entries)),
	}
	for i, e := range s.entries {
		st.Entries[i] = e.Clone()
		if e.IsActive() && st.Active == nil {
			active := e.Clone()
			st.Active = &active
		}
	}
	return st
}

// Active returns the running or paused entry.
func (s *Store) Active() (tracker.TimeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.activeIndex()
	if i < 0 {
		return tracker.TimeEntry{}, false
	}
	return s.entries[i].Clone(), true
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Location is the location dates are computed in.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Report aggregates the local entries.
func (s *Store) Report(filter tracker.DateFilter) tracker.Report {
	st := s.Snapshot()
	return tracker.Aggregate(st.Entries, st.Clients, filter, s.now(), s.loc)
}

// ClientsByRecency orders clients by their newest entry.
func (s *Store) ClientsByRecency() []tracker.Client {
	st := s.Snapshot()
	return tracker.SortClientsByRecency(st.Clients, st.Entries)
}

// RecentTasks returns up to n recently used task names.
func (s *Store) RecentTasks(n int) []string {
	st := s.Snapshot()
	return tracker.RecentTaskNames(st.Entries, n)
}

// ---------- helpers, called with mu held ----------

func (s *Store) sortEntries() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].StartTime > s.entries[j].StartTime
	})
}

func (s *Store) entryIndex(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) clientIndex(id string) int {
	for i := range s.clients {
		if s.clients[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) activeIndex() int {
	for i := range s.entries {
		if s.entries[i].IsActive() {
			return i
		}
	}
	return -1
}

func (s *Store) putEntry(e tracker.TimeEntry) {
	if i := s.entryIndex(e.ID); i >= 0 {
		s.entries[i] = e
	} else {
		s.entries = append(s.entries, e)
	}
	s.sortEntries()
}

func (s *Store) removeEntry(id string) {
	if i := s.entryIndex(id); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
}

// settle swaps a temporary record for the server's copy.
func (s *Store) settle(tempID string, saved tracker.TimeEntry) tracker.TimeEntry {
	delete(s.pending, tempID)
	saved.Date = tracker.DateOf(saved.StartTime, s.loc)
	s.removeEntry(tempID)
	s.putEntry(saved)
	return saved.Clone()
}

func (s *Store) rolledBack(op string, err error) error {
	s.logger.Printf("store: %s failed, local change rolled back: %v", op, err)
	return fmt.Errorf("%s: %w", op, err)
}

func tempID() string {
	return uuid.NewString()
}
