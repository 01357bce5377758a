package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rzbill/calhub/internal/hub"
	"github.com/rzbill/calhub/internal/runtime"
	"github.com/rzbill/calhub/internal/server/http/controllers"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// Server hosts the REST API, the websocket endpoint, and the SSE stream on
// a single listener.
type Server struct {
	rt  *runtime.Runtime
	srv *http.Server
	lis net.Listener
}

// New builds the router and wires every controller over the runtime and hub.
func New(rt *runtime.Runtime, lc *hub.Lifecycle, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewTestLogger()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors)

	reg := controllers.NewControllerRegistry(rt, lc, logger)
	reg.RegisterAllRoutes(r)

	return &Server{rt: rt, srv: &http.Server{Handler: r}}
}

// Handler exposes the assembled router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
