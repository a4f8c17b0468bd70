// control/http.go
// Author: momentics <momentics@gmail.com>
//
// Introspection endpoint serving /metrics and /debug/state.

package control

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NewMux routes the introspection handlers.
func NewMux(m *Metrics, dp *DebugProbes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/state", dp)
	return mux
}

// ServeIntrospection listens on addr and serves until ctx is cancelled.
// The bound address is returned once the listener is up.
func ServeIntrospection(ctx context.Context, addr string, m *Metrics, dp *DebugProbes, log *zap.Logger) (net.Addr, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           NewMux(m, dp),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("introspection server stopped", zap.Error(err))
		}
	}()
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	log.Info("introspection endpoint", zap.Stringer("addr", ln.Addr()))
	return ln.Addr(), nil
}
