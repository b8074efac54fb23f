// Package hub implements the hub: it ingests node records from collectors, keeps the
// latest record per node and serves it to viewers.
package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
	"go.uber.org/atomic"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/admin/commands"
	hubcommands "github.com/onflow/node-dashboard/admin/commands/hub"
	"github.com/onflow/node-dashboard/engine/common/channel"
	"github.com/onflow/node-dashboard/module"
	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/irrecoverable"
	"github.com/onflow/node-dashboard/module/snapshot"
)

const (
	SummaryPath     = "/data/nodesSummary"
	NodeSummaryPath = "/data/nodesSummary/{nodeName}"
	ResetPath       = "/reset"
	RunCommandPath  = "/admin/run_command"
)

// Engine is the hub's HTTP server. It owns the ingress channels, the viewer push
// channel, the snapshot routes and the operator routes, all backed by one
// snapshot cache.
type Engine struct {
	component.Component

	log        zerolog.Logger
	metrics    module.HubMetrics
	cache      *snapshot.Cache
	config     Config
	viewers    *viewerRegistry
	collectors *atomic.Int64
	runner     *admin.CommandRunner
	upgrader   websocket.Upgrader
	server     *http.Server
	addr       string
}

var _ hubcommands.SnapshotResetter = (*Engine)(nil)

// New creates a hub serving the given cache. The hub registers its operator
// commands with the command builder; commands registered by the caller are
// served as well.
func New(
	log zerolog.Logger,
	metrics module.HubMetrics,
	cache *snapshot.Cache,
	commandBuilder *admin.CommandRunnerBuilder,
	config Config,
) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid hub config: %w", err)
	}

	e := &Engine{
		log:        log.With().Str("component", "hub").Logger(),
		metrics:    metrics,
		cache:      cache,
		config:     config,
		collectors: atomic.NewInt64(0),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: channel.WriteWait,
			// viewers load the dashboard from other origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	e.viewers = newViewerRegistry(e.log, metrics, config)
	if !config.adminEnabled() {
		e.log.Info().Msg("admin password not set, operator routes are disabled")
	}

	commands.Register(commandBuilder, "reset-snapshot", hubcommands.NewResetSnapshotCommand(e))
	commands.Register(commandBuilder, "list-nodes", hubcommands.NewListNodesCommand(cache))
	e.runner = commandBuilder.Build(log)

	e.server = &http.Server{
		Addr:              config.ListenAddr,
		Handler:           e.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	e.Component = component.NewComponentManagerBuilder().
		AddWorker(e.runAdmin).
		AddWorker(e.serve).
		Build()

	return e, nil
}

// Handler returns the router serving every hub route.
func (e *Engine) Handler() http.Handler {
	mdlw := middleware.New(middleware.Config{
		Recorder: e.metrics,
	})
	instrument := func(id string, h http.HandlerFunc) http.Handler {
		return std.Handler(id, mdlw, h)
	}

	router := mux.NewRouter()

	// ingress
	router.Methods(http.MethodGet).Path(channel.NodesNamespace).HandlerFunc(e.handleCollector)
	router.Methods(http.MethodPost).Path(channel.NodesPostPath).Handler(instrument(channel.NodesPostPath, e.handleNodePost))

	// viewers
	router.Methods(http.MethodGet).Path(channel.FrontendsNamespace).HandlerFunc(e.handleViewer)
	router.Methods(http.MethodGet).Path(SummaryPath).Handler(instrument(SummaryPath, e.handleSummary))
	router.Methods(http.MethodGet).Path(NodeSummaryPath).Handler(instrument(NodeSummaryPath, e.handleNodeSummary))

	// operators
	if e.config.adminEnabled() {
		router.Methods(http.MethodGet).Path(ResetPath).Handler(e.requireAdmin(instrument(ResetPath, e.handleReset)))
		router.Methods(http.MethodPost).Path(RunCommandPath).Handler(e.requireAdmin(instrument(RunCommandPath, admin.NewAdminServer(e.log, e.runner).ServeHTTP)))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
			http.MethodHead},
	})

	return c.Handler(router)
}

// Addr returns the address the hub listens on. Only valid once the hub is ready.
func (e *Engine) Addr() string {
	return e.addr
}

// ResetSnapshot empties the snapshot cache and returns the number of removed entries.
func (e *Engine) ResetSnapshot() int {
	removed := e.cache.Reset()
	e.metrics.CacheReset()
	e.metrics.CacheSize(0)
	e.viewers.scale(0)
	e.log.Info().Int("removed", removed).Msg("snapshot cache reset")
	return removed
}

func (e *Engine) runAdmin(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	e.runner.Start(ctx)
	<-e.runner.Ready()
	ready()
	<-e.runner.Done()
}

func (e *Engine) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	l, err := net.Listen("tcp", e.server.Addr)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen on %s: %w", e.server.Addr, err))
		return
	}
	e.addr = l.Addr().String()

	// websocket handlers are not stopped by Shutdown, they watch the request context
	e.server.BaseContext = func(net.Listener) context.Context {
		return ctx
	}

	e.log.Info().Str("address", e.addr).Msg("hub server started")
	ready()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.server.Shutdown(shutdownCtx)
	}()

	if err := e.server.Serve(l); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			e.log.Debug().Err(err).Msg("hub server shutdown")
			return
		}
		e.log.Err(err).Msg("error running hub server")
		ctx.Throw(err)
	}
}
