package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/calhub/internal/config"
	"github.com/rzbill/calhub/internal/hub"
	"github.com/rzbill/calhub/internal/runtime"
	httpserver "github.com/rzbill/calhub/internal/server/http"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// Options for starting the server process.
type Options struct {
	Config cfgpkg.Config
}

// Run starts the HTTP server and blocks until ctx is cancelled. On shutdown
// every live hub connection is closed before the store.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers that
	// pass context.Background() still get clean Ctrl-C handling.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config

	procLogger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	// Redirect stdlib logs (e.g. Pebble) to our logger.
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	reg := hub.NewRegistry()
	router := hub.NewRouter(reg, procLogger)
	lc := hub.NewLifecycle(reg, router, rt.Store(), procLogger)
	hsrv := httpserver.New(rt, lc, procLogger)

	procLogger.Info("starting calhub server",
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, cfg.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server error", logpkg.Err(err))
		}
	}()

	<-sctx.Done()
	// Drain live connections first, then stop the listener, then let the
	// deferred rt.Close release the store.
	lc.CloseAll()
	hsrv.Close()
	wg.Wait()
	return nil
}
