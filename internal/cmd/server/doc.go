// Package serverrun exposes a shared Run entrypoint used by the CLI to start
// the calhub runtime and HTTP server, handling lifecycle and shutdown.
//
// Example:
//
//	cfg := config.Default()
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
