package hub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/onflow/node-dashboard/engine/common/channel"
	"github.com/onflow/node-dashboard/module"
)

type viewer struct {
	id      uuid.UUID
	send    chan []byte
	limiter *rate.Limiter
}

// viewerRegistry tracks connected viewers and pushes messages to them. A viewer that
// cannot keep up loses messages; ingress is never blocked by a viewer.
type viewerRegistry struct {
	sync.RWMutex
	log     zerolog.Logger
	metrics module.HubMetrics
	config  Config
	viewers map[uuid.UUID]*viewer

	// limit and burst grow with the number of reporting nodes so that every node
	// can reach a viewer about once per second.
	limit rate.Limit
	burst int
}

func newViewerRegistry(log zerolog.Logger, metrics module.HubMetrics, config Config) *viewerRegistry {
	return &viewerRegistry{
		log:     log.With().Str("component", "hub_viewers").Logger(),
		metrics: metrics,
		config:  config,
		viewers: make(map[uuid.UUID]*viewer),
		limit:   config.ViewerRateLimit,
		burst:   config.ViewerBurst,
	}
}

func (r *viewerRegistry) add() *viewer {
	v := &viewer{
		id:   uuid.New(),
		send: make(chan []byte, r.config.ViewerBufferSize),
	}

	r.Lock()
	v.limiter = rate.NewLimiter(r.limit, r.burst)
	r.viewers[v.id] = v
	count := len(r.viewers)
	r.Unlock()

	r.metrics.ViewerConnections(count)
	return v
}

func (r *viewerRegistry) remove(v *viewer) {
	r.Lock()
	delete(r.viewers, v.id)
	count := len(r.viewers)
	r.Unlock()

	r.metrics.ViewerConnections(count)
}

// scale sets the per-viewer limit to at least one message per second per node.
// The configured limit and burst are the floor.
func (r *viewerRegistry) scale(nodes int) {
	limit := r.config.ViewerRateLimit
	if perNode := rate.Limit(nodes); perNode > limit {
		limit = perNode
	}
	burst := r.config.ViewerBurst
	if nodes > burst {
		burst = nodes
	}

	r.Lock()
	defer r.Unlock()
	if limit == r.limit && burst == r.burst {
		return
	}
	r.limit, r.burst = limit, burst
	for _, v := range r.viewers {
		v.limiter.SetLimit(limit)
		v.limiter.SetBurst(burst)
	}
}

func (r *viewerRegistry) count() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.viewers)
}

// broadcast queues the message for every viewer without blocking.
func (r *viewerRegistry) broadcast(message []byte) {
	r.RLock()
	defer r.RUnlock()

	for _, v := range r.viewers {
		if !v.limiter.Allow() {
			r.metrics.ViewerMessageDropped()
			continue
		}
		select {
		case v.send <- message:
		default:
			r.metrics.ViewerMessageDropped()
			r.log.Debug().Str("viewer", v.id.String()).Msg("viewer too slow, dropped message")
		}
	}
}

// handleViewer upgrades a viewer connection and pushes a nodeInfo event for every
// accepted record. Viewers are receive-only: anything they send is discarded.
func (e *Engine) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.log.Debug().Err(err).Msg("could not upgrade viewer connection")
		return
	}
	// viewers have nothing to say, keep their frames small
	conn.SetReadLimit(512)

	v := e.viewers.add()
	defer e.viewers.remove(v)

	log := e.viewers.log.With().Str("viewer", v.id.String()).Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("viewer connected")

	if err := conn.SetReadDeadline(time.Now().Add(channel.PongWait)); err != nil {
		_ = conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(channel.PongWait))
	})

	g, gCtx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		<-gCtx.Done()
		return conn.Close()
	})
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			case message := <-v.send:
				if err := conn.SetWriteDeadline(time.Now().Add(channel.WriteWait)); err != nil {
					return err
				}
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					return fmt.Errorf("could not push to viewer: %w", err)
				}
			}
		}
	})
	g.Go(func() error {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return fmt.Errorf("connection closed: %w", err)
			}
			if err := conn.SetReadDeadline(time.Now().Add(channel.PongWait)); err != nil {
				return err
			}
		}
	})
	g.Go(func() error {
		return keepalive(gCtx, conn)
	})

	err = g.Wait()
	log.Debug().Err(err).Msg("viewer disconnected")
}

func keepalive(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(channel.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(channel.WriteWait)); err != nil {
				return fmt.Errorf("error sending ping: %w", err)
			}
		}
	}
}
