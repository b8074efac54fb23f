package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/engine/common/channel"
	"github.com/onflow/node-dashboard/model/telemetry"
	"github.com/onflow/node-dashboard/module/irrecoverable"
	"github.com/onflow/node-dashboard/module/metrics"
	"github.com/onflow/node-dashboard/module/snapshot"
	"github.com/onflow/node-dashboard/utils/unittest"
)

const (
	testNodeToken = "node-secret"
	testAdminUser = "operator"
	testAdminPass = "admin-secret"
)

type EngineSuite struct {
	suite.Suite

	cache  *snapshot.Cache
	engine *Engine
	base   string
	cancel context.CancelFunc
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func testConfig() Config {
	config := DefaultConfig()
	config.ListenAddr = "127.0.0.1:0"
	config.NodeToken = testNodeToken
	config.AdminUser = testAdminUser
	config.AdminPassword = testAdminPass
	config.ViewerRateLimit = 1000
	return config
}

func startEngine(t *testing.T, cache *snapshot.Cache, config Config) (*Engine, context.CancelFunc) {
	e, err := New(unittest.Logger(), metrics.NewNoopCollector(), cache, admin.NewCommandRunnerBuilder(), config)
	require.NoError(t, err)

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	e.Start(ctx)
	unittest.RequireComponentsReadyBefore(t, time.Second, e)

	return e, cancel
}

func (s *EngineSuite) SetupTest() {
	s.cache = snapshot.NewCache()
	s.engine, s.cancel = startEngine(s.T(), s.cache, testConfig())
	s.base = "http://" + s.engine.Addr()
}

func (s *EngineSuite) TearDownTest() {
	s.cancel()
	unittest.RequireComponentsDoneBefore(s.T(), 5*time.Second, s.engine)
}

func (s *EngineSuite) get(path string) (*http.Response, []byte) {
	resp, err := http.Get(s.base + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, body
}

func (s *EngineSuite) adminRequest(method string, path string, body io.Reader, user string, password string) *http.Response {
	req, err := http.NewRequest(method, s.base+path, body)
	s.Require().NoError(err)
	req.SetBasicAuth(user, password)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *EngineSuite) snapshot() []map[string]any {
	resp, body := s.get(SummaryPath)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	s.Require().NoError(json.Unmarshal(body, &entries))
	return entries
}

func (s *EngineSuite) dialCollector(token string) *websocket.Conn {
	header := http.Header{}
	header.Set(channel.TokenHeader, token)
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+s.engine.Addr()+channel.NodesNamespace, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *EngineSuite) sendRecord(conn *websocket.Conn, record *telemetry.NodeRecord) {
	message, err := channel.NewNodeInfoMessage(record)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, message))
}

func (s *EngineSuite) requireCached(nodeName string, uptime uint64) {
	s.Require().Eventually(func() bool {
		entry, ok := s.cache.Get(nodeName)
		return ok && entry.Uptime == uptime
	}, 5*time.Second, 10*time.Millisecond, "record of %s was not cached", nodeName)
}

func (s *EngineSuite) TestEmptySnapshot() {
	resp, body := s.get(SummaryPath)
	s.Assert().Equal(http.StatusOK, resp.StatusCode)
	s.Assert().Equal("application/json", resp.Header.Get("Content-Type"))
	s.Assert().Equal("public, max-age=1", resp.Header.Get("Cache-Control"))
	s.Assert().JSONEq(`[]`, string(body))
}

func (s *EngineSuite) TestCollectorRecordsAreCached() {
	conn := s.dialCollector(testNodeToken)

	s.sendRecord(conn, unittest.NodeRecordFixture(unittest.WithNodeName("alpha"), unittest.WithUptime(120)))
	s.requireCached("alpha", 120)

	entries := s.snapshot()
	s.Require().Len(entries, 1)
	s.Assert().Equal("alpha", entries[0]["nodeName"])
	s.Assert().EqualValues(120, entries[0]["uptime"])
	s.Assert().Contains(entries[0], "lastSeen")
}

// a second record for the same node replaces the first
func (s *EngineSuite) TestLastWriterWins() {
	conn := s.dialCollector(testNodeToken)

	s.sendRecord(conn, unittest.NodeRecordFixture(unittest.WithNodeName("alpha"), unittest.WithUptime(1)))
	s.requireCached("alpha", 1)

	other := s.dialCollector(testNodeToken)
	s.sendRecord(other, unittest.NodeRecordFixture(unittest.WithNodeName("alpha"), unittest.WithUptime(2)))
	s.requireCached("alpha", 2)

	s.Assert().Len(s.snapshot(), 1)
}

func (s *EngineSuite) TestInvalidRecordKeepsConnection() {
	conn := s.dialCollector(testNodeToken)

	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"nodeInfo","data":{"uptime":1}}`)))
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	s.sendRecord(conn, unittest.NodeRecordFixture(unittest.WithNodeName("alpha"), unittest.WithUptime(7)))

	s.requireCached("alpha", 7)
	s.Assert().Equal(1, s.cache.Size())
}

func (s *EngineSuite) TestCollectorTokenRequired() {
	for _, token := range []string{"", "wrong"} {
		header := http.Header{}
		header.Set(channel.TokenHeader, token)
		_, resp, err := websocket.DefaultDialer.Dial("ws://"+s.engine.Addr()+channel.NodesNamespace, header)
		s.Require().Error(err)
		s.Require().NotNil(resp)
		s.Assert().Equal(http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func (s *EngineSuite) TestPostRecord() {
	record := unittest.NodeRecordFixture(unittest.WithNodeName("beta"), unittest.WithUptime(9))
	data, err := record.Encode()
	s.Require().NoError(err)

	post := func(token string, body []byte) int {
		req, err := http.NewRequest(http.MethodPost, s.base+channel.NodesPostPath, bytes.NewReader(body))
		s.Require().NoError(err)
		req.Header.Set(channel.TokenHeader, token)
		resp, err := http.DefaultClient.Do(req)
		s.Require().NoError(err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	s.Assert().Equal(http.StatusUnauthorized, post("wrong", data))
	s.Assert().Equal(http.StatusBadRequest, post(testNodeToken, []byte(`{"nodeName": "beta"}`)))
	s.Assert().Zero(s.cache.Size())

	s.Assert().Equal(http.StatusNoContent, post(testNodeToken, data))
	s.requireCached("beta", 9)
}

func (s *EngineSuite) TestNodeSummary() {
	s.cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("alpha")))

	resp, body := s.get(SummaryPath + "/alpha")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var entry map[string]any
	s.Require().NoError(json.Unmarshal(body, &entry))
	s.Assert().Equal("alpha", entry["nodeName"])

	resp, _ = s.get(SummaryPath + "/missing")
	s.Assert().Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *EngineSuite) TestMinVersionFilter() {
	s.cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("old"), unittest.WithClient("0.6.2")))
	s.cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("new"), unittest.WithClient("1.0.1")))
	s.cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("odd"), unittest.WithClient("custom-build")))

	resp, body := s.get(SummaryPath + "?minVersion=1.0.0")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var entries []map[string]any
	s.Require().NoError(json.Unmarshal(body, &entries))
	s.Require().Len(entries, 1)
	s.Assert().Equal("new", entries[0]["nodeName"])

	resp, _ = s.get(SummaryPath + "?minVersion=latest")
	s.Assert().Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *EngineSuite) TestReset() {
	s.cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("alpha")))
	s.cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("beta")))

	resp := s.adminRequest(http.MethodGet, ResetPath, nil, testAdminUser, "wrong")
	_ = resp.Body.Close()
	s.Assert().Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Assert().Len(s.snapshot(), 2)

	resp = s.adminRequest(http.MethodGet, ResetPath, nil, testAdminUser, testAdminPass)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Assert().Equal(http.StatusOK, resp.StatusCode)
	s.Assert().Equal("Snapshot cache reset", string(body))
	s.Assert().Contains(resp.Header.Get("Content-Type"), "text/plain")

	s.Assert().Empty(s.snapshot())
}

func (s *EngineSuite) TestRunCommand() {
	s.cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("alpha")))

	resp := s.adminRequest(http.MethodPost, RunCommandPath, bytes.NewBufferString(`{"commandName": "list-nodes"}`), testAdminUser, testAdminPass)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var decoded struct {
		Output []map[string]any `json:"output"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	s.Require().Len(decoded.Output, 1)
	s.Assert().Equal("alpha", decoded.Output[0]["nodeName"])

	resp = s.adminRequest(http.MethodPost, RunCommandPath, bytes.NewBufferString(`{"commandName": "reset-snapshot"}`), testAdminUser, testAdminPass)
	_ = resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Assert().Zero(s.cache.Size())
}

func (s *EngineSuite) dialViewer() *websocket.Conn {
	before := s.engine.viewers.count()
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+s.engine.Addr()+channel.FrontendsNamespace, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	s.Require().Eventually(func() bool {
		return s.engine.viewers.count() > before
	}, 5*time.Second, 10*time.Millisecond)
	return conn
}

func (s *EngineSuite) TestViewerReceivesRecords() {
	viewer := s.dialViewer()
	collector := s.dialCollector(testNodeToken)

	s.sendRecord(collector, unittest.NodeRecordFixture(unittest.WithNodeName("alpha"), unittest.WithUptime(5)))

	s.Require().NoError(viewer.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, message, err := viewer.ReadMessage()
	s.Require().NoError(err)

	var env channel.Envelope
	s.Require().NoError(json.Unmarshal(message, &env))
	s.Assert().Equal(channel.EventNodeInfo, env.Event)

	var entry map[string]any
	s.Require().NoError(json.Unmarshal(env.Data, &entry))
	s.Assert().Equal("alpha", entry["nodeName"])
	s.Assert().EqualValues(5, entry["uptime"])
	s.Assert().Contains(entry, "lastSeen")
}

// records sent on the viewer channel are never ingested
func (s *EngineSuite) TestViewerCannotInjectRecords() {
	viewer := s.dialViewer()

	message, err := channel.NewNodeInfoMessage(unittest.NodeRecordFixture(unittest.WithNodeName("fake")))
	s.Require().NoError(err)
	s.Require().NoError(viewer.WriteMessage(websocket.TextMessage, message))

	// a real record sent afterwards proves the fake one had time to be processed
	collector := s.dialCollector(testNodeToken)
	s.sendRecord(collector, unittest.NodeRecordFixture(unittest.WithNodeName("alpha"), unittest.WithUptime(3)))
	s.requireCached("alpha", 3)

	_, ok := s.cache.Get("fake")
	s.Assert().False(ok)
	s.Assert().Equal([]string{"alpha"}, s.cache.Names())
}

func TestAdminRoutesDisabledWithoutPassword(t *testing.T) {
	config := testConfig()
	config.AdminPassword = ""
	e, cancel := startEngine(t, snapshot.NewCache(), config)
	defer func() {
		cancel()
		unittest.RequireComponentsDoneBefore(t, 5*time.Second, e)
	}()

	req, err := http.NewRequest(http.MethodGet, "http://"+e.Addr()+ResetPath, nil)
	require.NoError(t, err)
	req.SetBasicAuth(testAdminUser, "")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestViewerRegistryDropsForSlowViewers(t *testing.T) {
	config := DefaultConfig()
	config.ViewerBufferSize = 1
	config.ViewerBurst = 100
	config.ViewerRateLimit = 100
	registry := newViewerRegistry(unittest.Logger(), metrics.NewNoopCollector(), config)

	v := registry.add()
	unittest.RequireReturnsBefore(t, func() {
		registry.broadcast([]byte("first"))
		registry.broadcast([]byte("second"))
	}, time.Second, "broadcast blocked on a slow viewer")

	assert.Equal(t, []byte("first"), <-v.send)
	assert.Len(t, v.send, 0)

	registry.remove(v)
	assert.Zero(t, registry.count())
}

func TestViewerRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.ViewerBufferSize = 10
	config.ViewerBurst = 2
	config.ViewerRateLimit = 0.001
	registry := newViewerRegistry(unittest.Logger(), metrics.NewNoopCollector(), config)

	v := registry.add()
	for i := 0; i < 5; i++ {
		registry.broadcast([]byte("message"))
	}
	assert.Len(t, v.send, 2)
}

func TestInvalidConfig(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"rate limit":  func(c *Config) { c.ViewerRateLimit = 0 },
		"burst":       func(c *Config) { c.ViewerBurst = 0 },
		"buffer size": func(c *Config) { c.ViewerBufferSize = -1 },
		"max age":     func(c *Config) { c.SnapshotMaxAge = -time.Second },
	} {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			mutate(&config)
			_, err := New(unittest.Logger(), metrics.NewNoopCollector(), snapshot.NewCache(), admin.NewCommandRunnerBuilder(), config)
			assert.Error(t, err)
		})
	}
}

// a fleet larger than the configured burst still reaches every viewer
func TestViewerRateLimitScalesWithNodes(t *testing.T) {
	config := DefaultConfig()
	config.ViewerBufferSize = 100
	config.ViewerBurst = 2
	config.ViewerRateLimit = 0.001
	registry := newViewerRegistry(unittest.Logger(), metrics.NewNoopCollector(), config)

	before := registry.add()
	registry.scale(50)
	after := registry.add()

	// connected viewers refill at the raised rate
	assert.Equal(t, rate.Limit(50), before.limiter.Limit())
	assert.Equal(t, 50, before.limiter.Burst())

	for i := 0; i < 50; i++ {
		registry.broadcast([]byte("message"))
	}
	assert.Len(t, after.send, 50)

	// shrinking back never goes below the configured floor
	registry.scale(0)
	assert.Equal(t, config.ViewerRateLimit, registry.limit)
	assert.Equal(t, config.ViewerBurst, registry.burst)
}

func (s *EngineSuite) TestViewerAllowanceFollowsCache() {
	for _, record := range unittest.NodeRecordListFixture(30) {
		s.engine.ingest(record, metrics.TransportHTTP)
	}
	s.engine.viewers.RLock()
	s.Assert().Equal(30, s.engine.viewers.burst)
	s.engine.viewers.RUnlock()

	s.engine.ResetSnapshot()
	s.engine.viewers.RLock()
	s.Assert().Equal(testConfig().ViewerBurst, s.engine.viewers.burst)
	s.engine.viewers.RUnlock()
}
