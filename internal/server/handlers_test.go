package server

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/winsync/internal/output"
	"github.com/mj1618/winsync/internal/store"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestServer(t *testing.T) (*Server, *store.Hub) {
	t.Helper()
	hub := store.NewHub()
	srv := New(hub.Context(), Config{Key: "windows", Location: "memory", WaitInterval: time.Millisecond})
	return srv, hub
}

func callTool(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestHandleList(t *testing.T) {
	srv, hub := newTestServer(t)
	peer := hub.Context()
	writeRoster(t, peer, rosterOf("a", "b"))

	res := callTool(t, srv.handleList, nil)
	require.False(t, res.IsError)

	var got output.ListResult
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), &got))
	require.Equal(t, 2, got.Count)
	require.Equal(t, "valid", got.Status)
	require.Equal(t, "a", got.Windows[0].ID)
}

func TestHandleList_BBoxFilter(t *testing.T) {
	srv, hub := newTestServer(t)
	r := rosterOf("left", "right")
	r[1].Shape.X = 500
	writeRoster(t, hub.Context(), r)

	res := callTool(t, srv.handleList, map[string]any{"bbox": "400,0,200,200"})
	var got output.ListResult
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), &got))
	require.Equal(t, 1, got.Count)
	require.Equal(t, "right", got.Windows[0].ID)

	res = callTool(t, srv.handleList, map[string]any{"bbox": "nope"})
	require.True(t, res.IsError)
}

func TestHandleWait(t *testing.T) {
	srv, hub := newTestServer(t)
	peer := hub.Context()
	writeRoster(t, peer, rosterOf("a"))

	later, err := rosterOf("a", "b").Encode()
	require.NoError(t, err)
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = peer.Write("windows", later)
	}()

	res := callTool(t, srv.handleWait, map[string]any{"id": "b", "timeout": float64(5)})
	require.False(t, res.IsError, resultText(t, res))

	var got output.WaitResult
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), &got))
	require.True(t, got.OK)
	require.Equal(t, 2, got.Count)
	require.Equal(t, "b", got.Window.ID)
}

func TestHandleWait_Timeout(t *testing.T) {
	srv, _ := newTestServer(t)
	res := callTool(t, srv.handleWait, map[string]any{"count": float64(3), "timeout": 0.02})
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "timed out")
}

func TestHandleWait_NoCondition(t *testing.T) {
	srv, _ := newTestServer(t)
	res := callTool(t, srv.handleWait, map[string]any{})
	require.True(t, res.IsError)
}

func TestHandleClear(t *testing.T) {
	srv, hub := newTestServer(t)
	writeRoster(t, hub.Context(), rosterOf("a", "b"))

	res := callTool(t, srv.handleClear, nil)
	require.False(t, res.IsError)
	var got output.ClearResult
	require.NoError(t, yaml.Unmarshal([]byte(resultText(t, res)), &got))
	require.Equal(t, 2, got.Removed)
	require.Empty(t, hub.Keys())
}

func TestHandleLayout(t *testing.T) {
	srv, hub := newTestServer(t)
	writeRoster(t, hub.Context(), rosterOf("a", "b"))

	res := callTool(t, srv.handleLayout, map[string]any{"scale": float64(4), "label": "none"})
	require.False(t, res.IsError)
	img, ok := res.Content[0].(mcp.ImageContent)
	require.True(t, ok)
	require.Equal(t, "image/png", img.MIMEType)
	data, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	require.Equal(t, "\x89PNG", string(data[:4]))
}

func TestHandleLayout_EmptyRoster(t *testing.T) {
	srv, _ := newTestServer(t)
	res := callTool(t, srv.handleLayout, nil)
	require.True(t, res.IsError)
}

func TestParams(t *testing.T) {
	params := map[string]interface{}{
		"s":    "x",
		"n":    float64(3),
		"b":    true,
		"f":    1,
		"meta": map[string]interface{}{"role": "primary", "screen": float64(2)},
	}
	require.Equal(t, "x", stringParam(params, "s", ""))
	require.Equal(t, "3", stringParam(params, "n", ""))
	require.Equal(t, 3, intParam(params, "n", 0))
	require.Equal(t, 7, intParam(params, "missing", 7))
	require.True(t, boolParam(params, "b", false))
	require.Equal(t, 1.0, floatParam(params, "f", 0))
	require.Equal(t, map[string]string{"role": "primary", "screen": "2"}, metaParam(params, "meta"))
	require.Nil(t, metaParam(params, "missing"))
}
