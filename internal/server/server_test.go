package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/driftboard/pkg/engine"
	errs "github.com/matzehuels/driftboard/pkg/errors"
)

func newTestServer(t *testing.T) (*httptest.Server, *engine.Locked) {
	t.Helper()
	eng := engine.NewLocked(engine.New(engine.Options{}))
	ts := httptest.NewServer(New(eng, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, eng
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent && strings.Contains(resp.Header.Get("Content-Type"), "json") {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthAndVersion(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = do(t, ts, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dev", body["version"])
}

func TestNodeLifecycle(t *testing.T) {
	ts, eng := newTestServer(t)

	resp, body := do(t, ts, http.MethodPost, "/nodes", `{"content":"a","x":0,"y":0}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(0), body["id"])

	resp, body = do(t, ts, http.MethodPost, "/nodes", `{}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "New label", body["content"])
	assert.Equal(t, float64(200), body["x"], "staggered default position")

	resp, body = do(t, ts, http.MethodPatch, "/nodes/1", `{"x":400,"y":0,"color":"#ff0000","title_bound":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["changed"])
	node := body["node"].(map[string]any)
	assert.Equal(t, float64(400), node["x"])
	assert.Equal(t, "#ff0000", node["color"])

	resp, body = do(t, ts, http.MethodPost, "/edges", `{"from":0,"to":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(0), body["id"])

	resp, body = do(t, ts, http.MethodPost, "/nodes/0/collapse", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["collapsed"])

	resp, body = do(t, ts, http.MethodGet, "/frame", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "New label", body["title"])
	nodes := body["nodes"].([]any)
	assert.Equal(t, true, nodes[1].(map[string]any)["hidden"])
	assert.Len(t, body["routes"], 1)

	resp, _ = do(t, ts, http.MethodDelete, "/nodes/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = do(t, ts, http.MethodDelete, "/nodes/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(errs.ErrCodeNodeNotFound), errorCode(body))

	resp, body = do(t, ts, http.MethodPost, "/undo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["changed"])

	var count int
	eng.Do(func(e *engine.Engine) { count = e.Store().NodeCount() })
	assert.Equal(t, 2, count)
}

func TestEdgeErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	do(t, ts, http.MethodPost, "/nodes", `{"content":"a"}`)

	tests := []struct {
		name   string
		body   string
		status int
		code   errs.Code
	}{
		{"self loop", `{"from":0,"to":0}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"unknown target", `{"from":0,"to":7}`, http.StatusNotFound, errs.ErrCodeNodeNotFound},
		{"missing field", `{"from":0}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"bad color", `{"from":0,"to":1,"color":"#12"}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
		{"unknown field", `{"from":0,"to":1,"weight":3}`, http.StatusBadRequest, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, http.MethodPost, "/edges", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, string(tt.code), errorCode(body))
		})
	}

	resp, _ := do(t, ts, http.MethodDelete, "/edges/3", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodPatch, "/edges/3", `{"width":4}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodPatch, "/nodes/x", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportAndExport(t *testing.T) {
	ts, _ := newTestServer(t)
	do(t, ts, http.MethodPost, "/nodes", `{"content":"A","x":0,"y":0}`)

	doc := `{"labels":[{"id":0,"html":"B","left":50,"top":10}],"lines":[{"from":0,"to":0}]}`
	resp, body := do(t, ts, http.MethodPost, "/import?mode=merge", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "merge", body["mode"])
	assert.Equal(t, float64(1), body["nodes"])
	assert.Equal(t, float64(1), body["self_loops"])
	assert.Equal(t, float64(1), body["id_offset"])

	resp, body = do(t, ts, http.MethodGet, "/diagram", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["labels"], 2)

	resp, body = do(t, ts, http.MethodPost, "/import", `{"labels":[{"id":1},{"id":1}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(errs.ErrCodeInvalidDocument), errorCode(body))

	resp, _ = do(t, ts, http.MethodPost, "/import?mode=sideways", doc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, http.MethodGet, "/diagram/subtree/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["labels"], 1)
	resp, _ = do(t, ts, http.MethodGet, "/diagram/subtree/9", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPatch, "/diagram", `{"background":"#101010"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["changed"])
}

func TestRoutes(t *testing.T) {
	ts, _ := newTestServer(t)
	do(t, ts, http.MethodPost, "/nodes", `{"content":"a","x":0,"y":0}`)
	do(t, ts, http.MethodPost, "/nodes", `{"content":"b","x":400,"y":0}`)
	do(t, ts, http.MethodPost, "/edges", `{"from":0,"to":1}`)

	resp, err := ts.Client().Get(ts.URL + "/routes")
	require.NoError(t, err)
	defer resp.Body.Close()
	var routes []routeJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&routes))
	require.Len(t, routes, 1)
	assert.True(t, routes[0].Horizontal)
	assert.Equal(t, 400.0, routes[0].End.X)
	assert.Equal(t, routes[0].End, routes[0].Arrow[0], "arrow tip sits on the route end")
}

func TestRenderSVG(t *testing.T) {
	ts, _ := newTestServer(t)
	do(t, ts, http.MethodPost, "/nodes", `{"content":"a"}`)

	resp, err := ts.Client().Get(ts.URL + "/render.svg")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
}

func TestBodyLimit(t *testing.T) {
	ts, _ := newTestServer(t)
	big := `{"labels":[{"html":"` + strings.Repeat("x", MaxBodyBytes) + `"}]}`
	resp, _ := do(t, ts, http.MethodPost, "/import", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
