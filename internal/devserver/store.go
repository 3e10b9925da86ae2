package devserver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/marcus/scribe/internal/notes"
)

// memStore keeps notes per session in memory.
type memStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]notes.Envelope
	order    map[string][]string
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]map[string]notes.Envelope),
		order:    make(map[string][]string),
	}
}

func (s *memStore) list(session string) []notes.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notes.Envelope, 0, len(s.order[session]))
	for _, id := range s.order[session] {
		out = append(out, s.sessions[session][id])
	}
	return out
}

func (s *memStore) get(session, id string) (notes.Envelope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[session][id]
	return e, ok
}

func (s *memStore) create(session, body string) notes.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := notes.Envelope{ID: uuid.New().String(), Body: body}
	if s.sessions[session] == nil {
		s.sessions[session] = make(map[string]notes.Envelope)
	}
	s.sessions[session][e.ID] = e
	s.order[session] = append(s.order[session], e.ID)
	return e
}

// put replaces an existing note. It reports false for unknown ids.
func (s *memStore) put(session, id, body string) (notes.Envelope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session][id]; !ok {
		return notes.Envelope{}, false
	}
	e := notes.Envelope{ID: id, Body: body}
	s.sessions[session][id] = e
	return e, true
}
