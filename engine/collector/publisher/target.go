package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/onflow/node-dashboard/engine/common/channel"
	"github.com/onflow/node-dashboard/module"
	"github.com/onflow/node-dashboard/module/component"
	"github.com/onflow/node-dashboard/module/irrecoverable"
	"github.com/onflow/node-dashboard/utils/logging"
)

// target is the connection to a single hub.
type target struct {
	log     zerolog.Logger
	metrics module.PublisherMetrics
	config  Config

	name   string
	url    *url.URL
	dialer *websocket.Dialer
	header http.Header

	// mailbox holds at most one pending message; a newer message replaces it.
	mailbox   chan []byte
	connected *atomic.Bool
}

func newTarget(
	log zerolog.Logger,
	metrics module.PublisherMetrics,
	config Config,
	u *url.URL,
	dialer *websocket.Dialer,
	header http.Header,
) *target {
	return &target{
		log:       log.With().Str(logging.KeyTarget, u.String()).Logger(),
		metrics:   metrics,
		config:    config,
		name:      u.String(),
		url:       u,
		dialer:    dialer,
		header:    header,
		mailbox:   make(chan []byte, 1),
		connected: atomic.NewBool(false),
	}
}

// offer queues the message, replacing any message that has not been sent yet.
// Only the publishing goroutine calls offer, so the loop terminates after at most
// one replacement.
func (t *target) offer(message []byte) {
	for {
		select {
		case t.mailbox <- message:
			return
		default:
		}

		select {
		case <-t.mailbox:
			t.metrics.RecordDropped(t.name)
		default:
		}
	}
}

// run maintains the connection to the hub until shutdown. It throws if the hub
// stays unreachable for more than the configured number of attempts.
func (t *target) run(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	t.metrics.TargetConnected(t.name, false)
	ready()

	for {
		conn, err := t.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			ctx.Throw(NewPublishFailure(t.name, err))
			return
		}

		t.setConnected(true)
		t.log.Info().Msg("connected to hub")

		err = t.serve(ctx, conn)

		t.setConnected(false)
		if ctx.Err() != nil {
			return
		}
		t.log.Warn().Err(NewPublishFailure(t.name, err)).Msg("connection to hub lost, reconnecting")
	}
}

// connect dials the hub with capped exponential backoff.
func (t *target) connect(ctx context.Context) (*websocket.Conn, error) {
	backoff := retry.NewExponential(t.config.RetryBase)
	backoff = retry.WithCappedDuration(t.config.RetryMax, backoff)
	backoff = retry.WithJitterPercent(t.config.RetryJitterPercent, backoff)
	if t.config.MaxConnectAttempts > 0 {
		backoff = retry.WithMaxRetries(t.config.MaxConnectAttempts-1, backoff)
	}

	var (
		conn     *websocket.Conn
		attempts uint64
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		c, resp, err := t.dialer.DialContext(ctx, t.name, t.header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			t.metrics.ConnectAttemptFailed(t.name)
			t.log.Debug().Err(err).Uint64("attempt", attempts).Msg("could not connect to hub")
			return retry.RetryableError(err)
		}

		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect after %d attempts: %w", attempts, err)
	}

	return conn, nil
}

// serve runs the writer, reader and keepalive routines of one connection. It returns
// when any of them fails or ctx is cancelled, and always closes the connection.
func (t *target) serve(ctx context.Context, conn *websocket.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(channel.PongWait)); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to set the initial read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(channel.PongWait))
	})

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gCtx.Done()
		return conn.Close()
	})
	g.Go(func() error {
		return t.writeMessages(gCtx, conn)
	})
	g.Go(func() error {
		return t.readMessages(conn)
	})
	g.Go(func() error {
		return t.keepalive(gCtx, conn)
	})

	return g.Wait()
}

func (t *target) writeMessages(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(channel.WriteWait))
			return ctx.Err()
		case message := <-t.mailbox:
			if err := conn.SetWriteDeadline(time.Now().Add(channel.WriteWait)); err != nil {
				t.metrics.PublishFailed(t.name)
				return fmt.Errorf("failed to set the write deadline: %w", err)
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				t.metrics.PublishFailed(t.name)
				return fmt.Errorf("could not write record: %w", err)
			}
			t.metrics.RecordSent(t.name)
		}
	}
}

// readMessages drains the connection so control frames are processed. Hubs do not
// send data frames on the nodes namespace; any that arrive are discarded.
func (t *target) readMessages(conn *websocket.Conn) error {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return fmt.Errorf("connection closed: %w", err)
		}
	}
}

func (t *target) keepalive(ctx context.Context, conn *websocket.Conn) error {
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

func (t *target) setConnected(connected bool) {
	if t.connected.Swap(connected) != connected {
		t.metrics.TargetConnected(t.name, connected)
	}
}
