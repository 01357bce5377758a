package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rzbill/calhub/internal/eventstore"
)

// fakeSink records delivered payloads and can be flipped to fail sends.
type fakeSink struct {
	mu     sync.Mutex
	sent   [][]byte
	fail   bool
	closed bool
}

func (s *fakeSink) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("write: broken pipe")
	}
	s.sent = append(s.sent, append([]byte(nil), p...))
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// messages decodes every delivered payload.
func (s *fakeSink) messages(t *testing.T) []map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.sent))
	for _, raw := range s.sent {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("decode payload %q: %v", raw, err)
		}
		out = append(out, m)
	}
	return out
}

// types returns the type field of every delivered payload in order.
func (s *fakeSink) types(t *testing.T) []string {
	t.Helper()
	msgs := s.messages(t)
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		typ, _ := m["type"].(string)
		out = append(out, typ)
	}
	return out
}

func (s *fakeSink) countByType(t *testing.T, typ string) int {
	t.Helper()
	n := 0
	for _, got := range s.types(t) {
		if got == typ {
			n++
		}
	}
	return n
}

// fakeStore is an in-memory EventStore with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	events  map[string]*eventstore.Event
	nextID  int
	failAll error
	panicky bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[string]*eventstore.Event)}
}

func (s *fakeStore) Insert(_ context.Context, ev *eventstore.Event) (*eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicky {
		panic("store exploded")
	}
	if s.failAll != nil {
		return nil, s.failAll
	}
	if strings.TrimSpace(ev.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", eventstore.ErrValidation)
	}
	if _, err := eventstore.ParseDate(ev.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", eventstore.ErrValidation, err)
	}
	s.nextID++
	cp := ev.Clone()
	cp.ID = fmt.Sprintf("ev-%d", s.nextID)
	cp.CreatedAt = "2024-01-01T00:00:00+08:00"
	cp.UpdatedAt = cp.CreatedAt
	if cp.Color == "" {
		cp.Color = eventstore.DefaultColor
	}
	s.events[cp.ID] = cp
	return cp.Clone(), nil
}

func (s *fakeStore) UpdateByID(_ context.Context, ev *eventstore.Event) (*eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	prev, ok := s.events[ev.ID]
	if !ok {
		return nil, eventstore.ErrNotFound
	}
	cp := ev.Clone()
	cp.CreatedAt = prev.CreatedAt
	cp.UpdatedAt = "2024-01-01T00:00:01+08:00"
	s.events[cp.ID] = cp
	return cp.Clone(), nil
}

func (s *fakeStore) DeleteByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return false, s.failAll
	}
	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	delete(s.events, id)
	return true, nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	ev, ok := s.events[id]
	if !ok {
		return nil, eventstore.ErrNotFound
	}
	return ev.Clone(), nil
}

func (s *fakeStore) FindInRange(_ context.Context, start, end eventstore.Date) ([]*eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	var out []*eventstore.Event
	for _, ev := range s.events {
		day, err := ev.Day()
		if err != nil {
			continue
		}
		if !day.Before(start) && !day.After(end) {
			out = append(out, ev.Clone())
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *fakeStore) FindAll(_ context.Context) ([]*eventstore.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	out := make([]*eventstore.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Clone())
	}
	sortEvents(out)
	return out, nil
}

func sortEvents(events []*eventstore.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Time < events[j].Time
	})
}

// newTestHub builds a registry/router/lifecycle trio over a fake store.
func newTestHub(t *testing.T) (*Lifecycle, *Registry, *Router, *fakeStore) {
	t.Helper()
	reg := NewRegistry()
	router := NewRouter(reg, nil)
	store := newFakeStore()
	lc := NewLifecycle(reg, router, store, nil)
	return lc, reg, router, store
}

func mustDate(t *testing.T, s string) eventstore.Date {
	t.Helper()
	d, err := eventstore.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}
