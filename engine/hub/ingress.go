package hub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/onflow/node-dashboard/engine/common/channel"
	"github.com/onflow/node-dashboard/model/telemetry"
	"github.com/onflow/node-dashboard/module/metrics"
	"github.com/onflow/node-dashboard/utils/logging"
)

// maxRecordSize bounds a single record on both ingress transports.
const maxRecordSize = 1 << 20

// ingest writes the record to the cache, replacing the node's previous entry, and
// pushes the new entry to every viewer.
func (e *Engine) ingest(record *telemetry.NodeRecord, transport string) {
	entry := e.cache.Put(record)
	size := e.cache.Size()
	e.metrics.RecordIngested(transport)
	e.metrics.CacheSize(size)
	e.viewers.scale(size)

	data, err := json.Marshal(entry)
	if err != nil {
		e.log.Error().Err(err).Str(logging.KeyNodeName, record.NodeName).Msg("could not encode entry for viewers")
		return
	}
	message, err := channel.EncodeEnvelope(channel.EventNodeInfo, data)
	if err != nil {
		e.log.Error().Err(err).Str(logging.KeyNodeName, record.NodeName).Msg("could not encode push message")
		return
	}
	e.viewers.broadcast(message)
}

// handleNodePost accepts a single record over HTTP.
func (e *Engine) handleNodePost(w http.ResponseWriter, r *http.Request) {
	if !e.authorizeCollector(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordSize))
	if err != nil {
		e.metrics.RecordRejected(metrics.TransportHTTP)
		http.Error(w, fmt.Sprintf("could not read body: %v", err), http.StatusBadRequest)
		return
	}

	record, err := telemetry.DecodeNodeRecord(body)
	if err != nil {
		e.metrics.RecordRejected(metrics.TransportHTTP)
		e.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejected node record")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e.ingest(record, metrics.TransportHTTP)
	w.WriteHeader(http.StatusNoContent)
}

// handleCollector upgrades a collector connection and ingests every record sent on it
// until the collector disconnects or the hub shuts down.
func (e *Engine) handleCollector(w http.ResponseWriter, r *http.Request) {
	if !e.authorizeCollector(r) {
		e.log.Warn().Str("remote", r.RemoteAddr).Msg("rejected collector with invalid token")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		e.log.Debug().Err(err).Msg("could not upgrade collector connection")
		return
	}
	conn.SetReadLimit(maxRecordSize)

	log := e.log.With().Str("remote", r.RemoteAddr).Logger()
	e.metrics.CollectorConnections(int(e.collectors.Inc()))
	log.Info().Msg("collector connected")
	defer func() {
		e.metrics.CollectorConnections(int(e.collectors.Dec()))
		log.Info().Msg("collector disconnected")
	}()

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
			_, message, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("connection closed: %w", err)
			}
			// any frame counts as liveness, not only pongs
			if err := conn.SetReadDeadline(time.Now().Add(channel.PongWait)); err != nil {
				return err
			}

			record, err := channel.DecodeNodeInfoMessage(message)
			if err != nil {
				e.metrics.RecordRejected(metrics.TransportWebsocket)
				log.Warn().Err(err).Msg("rejected node record")
				continue
			}
			e.ingest(record, metrics.TransportWebsocket)
		}
	})
	g.Go(func() error {
		return keepalive(gCtx, conn)
	})

	err = g.Wait()
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Debug().Err(err).Msg("collector connection ended")
	}
}
