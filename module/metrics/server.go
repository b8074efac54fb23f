package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/irrecoverable"
)

// Server is the http server that will be serving the /metrics request for prometheus
type Server struct {
	component.Component

	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a new server that will start on the specified port,
// and responds to only the `/metrics` endpoint
func NewServer(log zerolog.Logger, port uint, gatherer prometheus.Gatherer) *Server {
	addr := ":" + strconv.Itoa(int(port))

	mux := http.NewServeMux()
	endpoint := "/metrics"
	mux.Handle(endpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	m := &Server{
		server: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		log:    log.With().Str("component", "metrics_server").Str("address", addr).Str("endpoint", endpoint).Logger(),
	}

	m.Component = component.NewComponentManagerBuilder().
		AddWorker(m.serve).
		Build()

	return m
}

func (m *Server) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	l, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		ctx.Throw(err)
		return
	}
	m.log.Info().Msg("metrics server started")
	ready()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.server.Shutdown(shutdownCtx)
	}()

	if err := m.server.Serve(l); err != nil {
		// http.ErrServerClosed is returned when Close or Shutdown is called
		// we don't consider this an error, so print this with debug level instead
		if errors.Is(err, http.ErrServerClosed) {
			m.log.Debug().Err(err).Msg("metrics server shutdown")
			return
		}
		m.log.Err(err).Msg("error running metrics server")
		ctx.Throw(err)
	}
}
