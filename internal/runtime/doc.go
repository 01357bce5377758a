// Package runtime wires storage, config, and the event store into a
// single-node calhub instance. It exposes Open/Close and a basic health
// check used by the HTTP layer.
//
// Example:
//
//	cfg := config.Default()
//	cfg.DataDir = "./data"
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	events, _ := rt.Store().FindAll(context.Background())
package runtime
