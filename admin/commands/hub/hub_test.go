package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/module/snapshot"
	"github.com/onflow/node-dashboard/utils/unittest"
)

type resetterFunc func() int

func (f resetterFunc) ResetSnapshot() int {
	return f()
}

func TestResetSnapshot(t *testing.T) {
	cache := snapshot.NewCache()
	cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("alpha")))
	cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("beta")))

	cmd := NewResetSnapshotCommand(resetterFunc(cache.Reset))
	req := &admin.CommandRequest{Data: "ignored"}
	require.NoError(t, cmd.Validator(req))

	output, err := cmd.Handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"removed": 2}, output)
	assert.Empty(t, cache.All())
}

func TestListNodes(t *testing.T) {
	now := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := now.Add(-2 * time.Minute)
	cache := snapshot.NewCache(snapshot.WithClock(func() time.Time { return clock }))

	cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("stale"), unittest.WithClient("1.0.0")))
	clock = now.Add(-time.Second)
	cache.Put(unittest.NodeRecordFixture(unittest.WithNodeName("fresh"), unittest.WithClient("1.0.1")))

	cmd := NewListNodesCommand(cache)
	cmd.now = func() time.Time { return now }

	t.Run("all nodes", func(t *testing.T) {
		req := &admin.CommandRequest{}
		require.NoError(t, cmd.Validator(req))

		output, err := cmd.Handler(context.Background(), req)
		require.NoError(t, err)
		nodes := output.([]map[string]interface{})
		require.Len(t, nodes, 2)
		assert.Equal(t, "fresh", nodes[0]["nodeName"])
		assert.Equal(t, "1.0.1", nodes[0]["client"])
		assert.Equal(t, "1s", nodes[0]["age"])
		assert.Equal(t, "stale", nodes[1]["nodeName"])
		assert.Equal(t, "2021-03-01T09:58:00Z", nodes[1]["lastSeen"])
	})

	t.Run("stale nodes only", func(t *testing.T) {
		req := &admin.CommandRequest{Data: map[string]interface{}{"stale_after": "1m"}}
		require.NoError(t, cmd.Validator(req))

		output, err := cmd.Handler(context.Background(), req)
		require.NoError(t, err)
		nodes := output.([]map[string]interface{})
		require.Len(t, nodes, 1)
		assert.Equal(t, "stale", nodes[0]["nodeName"])
	})
}

func TestListNodesInvalidData(t *testing.T) {
	cmd := NewListNodesCommand(snapshot.NewCache())

	for _, data := range []interface{}{
		"1m",
		map[string]interface{}{"stale_after": 60},
		map[string]interface{}{"stale_after": "soon"},
		map[string]interface{}{"stale_after": "-1m"},
	} {
		err := cmd.Validator(&admin.CommandRequest{Data: data})
		require.Error(t, err, "data: %v", data)
		assert.True(t, admin.IsInvalidAdminParameterError(err))
	}
}
