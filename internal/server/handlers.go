package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/winsync/internal/layout"
	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/output"
	"github.com/mj1618/winsync/internal/platform"
	"gopkg.in/yaml.v3"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list",
			mcp.WithDescription("List the windows currently registered in the shared roster, with their ids, on-screen shapes and metadata"),
			mcp.WithObject("meta", mcp.Description("Only include windows whose metadata has these key/value pairs (case-insensitive)")),
			mcp.WithString("bbox", mcp.Description("Only include windows intersecting this x,y,w,h rectangle")),
		),
		s.handleList,
	)

	s.mcp.AddTool(
		mcp.NewTool("wait",
			mcp.WithDescription("Wait until the roster reaches a window count or a window id appears or disappears"),
			mcp.WithNumber("count", mcp.Description("Wait for at least this many windows (fewer with gone)")),
			mcp.WithString("id", mcp.Description("Wait for the window with this id")),
			mcp.WithBoolean("gone", mcp.Description("Invert: wait until the condition is NO LONGER true")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (default: 30)")),
		),
		s.handleWait,
	)

	s.mcp.AddTool(
		mcp.NewTool("clear",
			mcp.WithDescription("Clear the shared store, removing every registered window including stale ones left by crashed processes"),
		),
		s.handleClear,
	)

	s.mcp.AddTool(
		mcp.NewTool("layout",
			mcp.WithDescription("Render the roster as a PNG map of window rectangles in screen coordinates"),
			mcp.WithNumber("scale", mcp.Description("Pixels per screen point (default: 0.25)")),
			mcp.WithString("label", mcp.Description("Label mode: ids, coords, none (default: ids)")),
			mcp.WithString("highlight", mcp.Description("Window id to outline")),
		),
		s.handleLayout,
	)
}

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func (s *Server) readRoster() (model.RosterResult, error) {
	res, err := s.cache.Read()
	if err != nil {
		return model.RosterResult{}, fmt.Errorf("read roster: %w", err)
	}
	return res, nil
}

func (s *Server) handleList(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	meta := metaParam(params, "meta")

	var bbox *model.Shape
	if raw := stringParam(params, "bbox", ""); raw != "" {
		b, err := platform.ParseShape(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		bbox = &b
	}

	res, err := s.readRoster()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	windows := model.FilterWindows(res.Roster, meta, bbox)
	return mcp.NewToolResultText(toText(output.ListResult{
		Key:     s.cfg.Key,
		TS:      time.Now().Unix(),
		Count:   len(windows),
		Status:  res.Status.String(),
		Windows: windows,
	})), nil
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	cond := Condition{
		Count: intParam(params, "count", 0),
		ID:    stringParam(params, "id", ""),
		Gone:  boolParam(params, "gone", false),
	}
	if err := cond.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeout := time.Duration(floatParam(params, "timeout", 30) * float64(time.Second))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Waits always read through to the store; the cache would hide changes.
	outcome, err := WaitFor(ctx, func() (model.Roster, error) {
		s.cache.Invalidate()
		res, err := s.readRoster()
		return res.Roster, err
	}, cond, s.cfg.WaitInterval)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", cond, err)), nil
	}
	return mcp.NewToolResultText(toText(output.WaitResult{
		OK:        true,
		Elapsed:   fmt.Sprintf("%.1fs", outcome.Elapsed.Seconds()),
		Condition: cond.String(),
		Count:     len(outcome.Roster),
		Window:    outcome.Match,
	})), nil
}

func (s *Server) handleClear(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, _ := s.cache.Read()
	if err := s.store.Clear(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear store: %v", err)), nil
	}
	s.cache.Invalidate()
	s.logger.Info("shared store cleared", "removed", len(res.Roster))
	return mcp.NewToolResultText(toText(output.ClearResult{
		OK:      true,
		Store:   s.cfg.Location,
		Removed: len(res.Roster),
	})), nil
}

func (s *Server) handleLayout(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	mode, err := layout.ParseLabelMode(stringParam(params, "label", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.readRoster()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	_, err = layout.WritePNG(&buf, res.Roster, layout.Options{
		Scale:     floatParam(params, "scale", 0.25),
		Padding:   8,
		Label:     mode,
		Highlight: stringParam(params, "highlight", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
				MIMEType: "image/png",
			},
		},
	}, nil
}
