package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/gorilla/mux"

	"github.com/onflow/node-dashboard/module/snapshot"
)

// handleSummary returns every cached entry as a JSON array. With a minVersion query
// parameter, only entries whose client version is at least that version are returned.
func (e *Engine) handleSummary(w http.ResponseWriter, r *http.Request) {
	entries := e.cache.All()

	if raw := r.URL.Query().Get("minVersion"); raw != "" {
		minVersion, err := parseVersion(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid minVersion %q: %v", raw, err), http.StatusBadRequest)
			return
		}
		entries = filterMinVersion(entries, minVersion)
	}

	e.writeSnapshot(w, entries)
}

func (e *Engine) handleNodeSummary(w http.ResponseWriter, r *http.Request) {
	nodeName := mux.Vars(r)["nodeName"]

	entry, ok := e.cache.Get(nodeName)
	if !ok {
		http.Error(w, fmt.Sprintf("node %q not found", nodeName), http.StatusNotFound)
		return
	}

	e.writeSnapshot(w, entry)
}

func (e *Engine) handleReset(w http.ResponseWriter, _ *http.Request) {
	e.ResetSnapshot()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("Snapshot cache reset"))
}

func (e *Engine) writeSnapshot(w http.ResponseWriter, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		e.log.Error().Err(err).Msg("could not encode snapshot")
		http.Error(w, "could not encode snapshot", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(e.config.SnapshotMaxAge.Seconds())))
	_, _ = w.Write(data)
}

// parseVersion parses a node software version. A leading "v" is accepted.
func parseVersion(raw string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
}

// filterMinVersion drops entries whose client version is older than minVersion or
// cannot be parsed.
func filterMinVersion(entries []snapshot.Entry, minVersion *semver.Version) []snapshot.Entry {
	filtered := make([]snapshot.Entry, 0, len(entries))
	for _, entry := range entries {
		version, err := parseVersion(entry.Client)
		if err != nil || version.LessThan(*minVersion) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}
