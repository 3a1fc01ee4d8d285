package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/browser"
	"github.com/hpungsan/clipper/internal/clip"
	"github.com/hpungsan/clipper/internal/config"
	"github.com/hpungsan/clipper/internal/errors"
	"github.com/hpungsan/clipper/internal/popup"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	source browser.Source
	relay  popup.Submitter
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(source browser.Source, relay popup.Submitter, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{source: source, relay: relay, cfg: cfg, logger: logger}
}

// SubmitRequest represents the arguments for clip_submit.
type SubmitRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// CaptureOutput is returned by clip_capture.
type CaptureOutput struct {
	URL         string `json:"url"`
	Text        string `json:"text"`
	DisplayText string `json:"display_text"`
	Chars       int    `json:"chars"`
	ActiveTab   bool   `json:"active_tab"`
}

// SubmitOutput is returned by clip_submit on success.
type SubmitOutput struct {
	clip.Result
	Status clip.Status `json:"status"`
}

// HandleCapture handles the clip_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec := &popup.Recorder{}
	pending, err := popup.NewController(h.source, nil, rec, h.logger).LoadSelection(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(CaptureOutput{
		URL:         pending.SourceURL,
		Text:        pending.SelectedText,
		DisplayText: rec.Selection(),
		Chars:       clip.CountChars(pending.SelectedText),
		ActiveTab:   rec.Selection() != "",
	})
}

// HandleSubmit handles the clip_submit tool call.
func (h *Handlers) HandleSubmit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SubmitRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	pending := clip.PendingClip{SourceURL: input.URL, SelectedText: input.Text}
	if err := clip.Validate(pending); err != nil {
		return errorResult(err), nil
	}
	if h.relay == nil {
		return errorResult(errors.NewEndpointNotConfigured(h.cfg.Endpoint, "")), nil
	}

	rec := &popup.Recorder{}
	status := popup.NewController(h.source, h.relay, rec, h.logger).SubmitClip(ctx, pending)
	if status.Kind != clip.StatusSuccess {
		return errorResult(errors.NewTransport(strings.TrimPrefix(status.Text, clip.MsgFailurePrefix))), nil
	}

	return successResult(SubmitOutput{
		Result: clip.Succeeded(status.Detail),
		Status: status,
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if cErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": cErr.Message,
			"status":  cErr.Status,
		}
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
