package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/utils/unittest"
)

func newTestServer(t *testing.T) *httptest.Server {
	builder := admin.NewCommandRunnerBuilder().
		RegisterValidator("echo", func(req *admin.CommandRequest) error {
			if _, ok := req.Data.(string); !ok {
				return admin.NewInvalidAdminReqFormatError("expected a string")
			}
			return nil
		}).
		RegisterHandler("echo", func(_ context.Context, req *admin.CommandRequest) (any, error) {
			return req.Data, nil
		}).
		RegisterHandler("fail", func(context.Context, *admin.CommandRequest) (any, error) {
			return nil, errors.New("boom")
		})
	runner := startRunner(t, builder)

	server := httptest.NewServer(admin.NewAdminServer(unittest.Logger(), runner))
	t.Cleanup(server.Close)
	return server
}

func postCommand(t *testing.T, url string, body string) (int, map[string]any) {
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestRunCommandOverHTTP(t *testing.T) {
	server := newTestServer(t)

	code, body := postCommand(t, server.URL, `{"commandName": "echo", "data": "hello"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello", body["output"])
}

func TestRunCommandStatusCodes(t *testing.T) {
	server := newTestServer(t)

	cases := map[string]struct {
		body string
		code int
	}{
		"malformed json":  {body: `{"commandName":`, code: http.StatusBadRequest},
		"missing name":    {body: `{"data": 1}`, code: http.StatusBadRequest},
		"invalid data":    {body: `{"commandName": "echo", "data": 1}`, code: http.StatusBadRequest},
		"unknown command": {body: `{"commandName": "nope"}`, code: http.StatusNotFound},
		"failing handler": {body: `{"commandName": "fail"}`, code: http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			code, body := postCommand(t, server.URL, tc.body)
			assert.Equal(t, tc.code, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRunCommandRequiresPost(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
