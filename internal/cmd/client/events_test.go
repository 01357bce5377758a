package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rzbill/calhub/internal/eventstore"
)

// fakeAPI is a minimal in-memory stand-in for the REST API.
type fakeAPI struct {
	mu     sync.Mutex
	events map[string]*eventstore.Event
	nextID int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{events: make(map[string]*eventstore.Event)}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			out := []*eventstore.Event{}
			start := r.URL.Query().Get("start_date")
			end := r.URL.Query().Get("end_date")
			for _, ev := range f.events {
				if start != "" && (ev.Date < start || ev.Date > end) {
					continue
				}
				out = append(out, ev)
			}
			_ = json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var ev eventstore.Event
			_ = json.NewDecoder(r.Body).Decode(&ev)
			if ev.Title == "" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "title is required"})
				return
			}
			f.nextID++
			ev.ID = fmt.Sprintf("ev-%d", f.nextID)
			f.events[ev.ID] = &ev
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(&ev)
		}
	})
	mux.HandleFunc("/api/events/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/api/events/")
		ev, ok := f.events[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "event not found"})
			return
		}
		switch r.Method {
		case http.MethodPut:
			var next eventstore.Event
			_ = json.NewDecoder(r.Body).Decode(&next)
			next.ID = ev.ID
			f.events[id] = &next
			_ = json.NewEncoder(w).Encode(&next)
		case http.MethodDelete:
			delete(f.events, id)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "online_users": 3})
	})
	return mux
}

func runCommand(t *testing.T, baseURL string, args ...string) string {
	t.Helper()
	root := NewRoot(func() string { return baseURL })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestEventsCreateAndList(t *testing.T) {
	api := newFakeAPI()
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	out := runCommand(t, ts.URL, "events", "create", "--title", "standup", "--date", "2024-03-15")
	if !strings.Contains(out, "standup") {
		t.Fatalf("create output missing event: %q", out)
	}

	out = runCommand(t, ts.URL, "events", "list")
	if !strings.Contains(out, "standup") {
		t.Fatalf("list output missing event: %q", out)
	}
}

func TestEventsCreateServerErrorSurfaces(t *testing.T) {
	api := newFakeAPI()
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	root := NewRoot(func() string { return ts.URL })
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"events", "create", "--date", "2024-03-15"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "title is required") {
		t.Fatalf("expected server error message, got %v", err)
	}
}

func TestEventsDelete(t *testing.T) {
	api := newFakeAPI()
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	runCommand(t, ts.URL, "events", "create", "--title", "x", "--date", "2024-03-15")
	api.mu.Lock()
	var id string
	for k := range api.events {
		id = k
	}
	api.mu.Unlock()

	out := runCommand(t, ts.URL, "events", "delete", id)
	if !strings.Contains(out, "OK") {
		t.Fatalf("delete output: %q", out)
	}
	api.mu.Lock()
	n := len(api.events)
	api.mu.Unlock()
	if n != 0 {
		t.Fatalf("event not deleted")
	}
}

func TestEventsPurgeDeletesRangeOnly(t *testing.T) {
	api := newFakeAPI()
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	runCommand(t, ts.URL, "events", "create", "--title", "in", "--date", "2024-03-15")
	runCommand(t, ts.URL, "events", "create", "--title", "out", "--date", "2024-05-01")

	out := runCommand(t, ts.URL, "events", "purge", "--start-date", "2024-03-01", "--end-date", "2024-03-31")
	if !strings.Contains(out, "deleted: 1") {
		t.Fatalf("purge output: %q", out)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.events) != 1 {
		t.Fatalf("expected one surviving event, have %d", len(api.events))
	}
	for _, ev := range api.events {
		if ev.Title != "out" {
			t.Fatalf("wrong event survived: %+v", ev)
		}
	}
}

func TestHealthCommand(t *testing.T) {
	api := newFakeAPI()
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	out := runCommand(t, ts.URL, "health")
	if !strings.Contains(out, `"status":"ok"`) || !strings.Contains(out, `"online_users":3`) {
		t.Fatalf("health output: %q", out)
	}
}
