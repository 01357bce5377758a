package serverrun

import (
	"context"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/calhub/internal/config"
)

// TestRunIntegration verifies Run starts and shuts down cleanly. Minimal by
// design since it starts a real listener.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Fsync = "never"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := Run(ctx, Options{Config: cfg}); err != nil {
		t.Fatalf("run: %v", err)
	}
}
