package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/rzbill/calhub/internal/config"
	"github.com/rzbill/calhub/internal/eventstore"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.Fsync = "never"
	rt, err := Open(Options{Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenAndHealth(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	created, err := rt.Store().Insert(ctx, &eventstore.Event{Title: "standup", Date: "2024-03-15"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := rt.Store().FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != "standup" {
		t.Fatalf("round trip title: %s", got.Title)
	}
}

func TestLocationFollowsConfiguredOffset(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.Fsync = "never"
	cfg.UTCOffsetHours = 8
	rt, err := Open(Options{Config: cfg})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	if rt.Location().String() != "UTC+8" {
		t.Fatalf("zone name = %s", rt.Location().String())
	}
}

func TestCloseIsIdempotentOnNilDB(t *testing.T) {
	var rt Runtime
	if err := rt.Close(); err != nil {
		t.Fatalf("close on zero runtime: %v", err)
	}
}
