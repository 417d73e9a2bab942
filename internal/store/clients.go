package store

import (
	"context"
	"strings"

	"time-ledger/internal/tracker"
)

// AddClient inserts a client locally and creates it remotely. Entries that
// were started against the temporary id follow the client to its server id.
func (s *Store) AddClient(ctx context.Context, name, color string) (tracker.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tracker.Client{}, tracker.ErrMissingClient
	}
	resolved, err := tracker.ResolveColor(name, color)
	if err != nil {
		return tracker.Client{}, err
	}

	temp := tracker.Client{ID: tempID(), Name: name, Color: resolved}
	s.mu.Lock()
	s.clients = append(s.clients, temp)
	s.pending[temp.ID] = true
	s.mu.Unlock()

	saved, err := s.backend.CreateClient(ctx, name, resolved)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, temp.ID)
	i := s.clientIndex(temp.ID)
	if err != nil {
		if i >= 0 {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
		}
		return tracker.Client{}, s.rolledBack("add client", err)
	}
	if i >= 0 {
		s.clients[i] = saved
	} else {
		s.clients = append(s.clients, saved)
	}
	for j := range s.entries {
		if s.entries[j].ClientID == temp.ID {
			s.entries[j].ClientID = saved.ID
		}
	}
	return saved, nil
}

// DeleteClient removes a client and its entries.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.clientIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if s.pending[id] {
		s.mu.Unlock()
		return ErrPending
	}
	prevClient := s.clients[i]
	s.clients = append(s.clients[:i], s.clients[i+1:]...)
	var removed, kept []tracker.TimeEntry
	for _, e := range s.entries {
		if e.ClientID == id {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.mu.Unlock()

	err := s.backend.DeleteClient(ctx, id)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i > len(s.clients) {
		i = len(s.clients)
	}
	s.clients = append(s.clients[:i], append([]tracker.Client{prevClient}, s.clients[i:]...)...)
	for _, e := range removed {
		s.putEntry(e)
	}
	return s.rolledBack("delete client", err)
}
