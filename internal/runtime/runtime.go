package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfgpkg "github.com/rzbill/calhub/internal/config"
	"github.com/rzbill/calhub/internal/eventstore"
	pebblestore "github.com/rzbill/calhub/internal/storage/pebble"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime wires storage, config, and the event store for a single-node
// instance.
type Runtime struct {
	db     *pebblestore.DB
	store  *eventstore.Store
	config cfgpkg.Config
	loc    *time.Location
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       dataDir,
		Fsync:         fsyncMode(cfg.Fsync),
		FsyncInterval: time.Duration(cfg.FsyncIntervalMS) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	loc := time.FixedZone(zoneName(cfg.UTCOffsetHours), cfg.UTCOffsetHours*60*60)
	store := eventstore.New(eventstore.Options{
		DB:           db,
		Location:     loc,
		DefaultColor: cfg.DefaultColor,
		Logger:       opts.Logger,
	})
	return &Runtime{db: db, store: store, config: cfg, loc: loc}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check against the storage layer.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// Store returns the event store.
func (r *Runtime) Store() *eventstore.Store { return r.store }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Location returns the fixed zone all timestamps are rendered in.
func (r *Runtime) Location() *time.Location { return r.loc }

func fsyncMode(s string) pebblestore.FsyncMode {
	switch s {
	case "always":
		return pebblestore.FsyncModeAlways
	case "never":
		return pebblestore.FsyncModeNever
	case "interval":
		return pebblestore.FsyncModeInterval
	default:
		return pebblestore.FsyncModeUnspecified
	}
}

func zoneName(offsetHours int) string {
	switch {
	case offsetHours == 0:
		return "UTC"
	case offsetHours > 0:
		return fmt.Sprintf("UTC+%d", offsetHours)
	default:
		return fmt.Sprintf("UTC-%d", -offsetHours)
	}
}
