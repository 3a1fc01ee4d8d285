package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/browser"
	"github.com/hpungsan/clipper/internal/config"
	"github.com/hpungsan/clipper/internal/popup"
)

var captureToolDef = mcp.NewTool("clip_capture",
	mcp.WithDescription("Read the selected text and URL of the active browser tab. Returns the pending clip without submitting it."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var submitToolDef = mcp.NewTool("clip_submit",
	mcp.WithDescription("Submit a clip to the configured endpoint as {url, text}. Empty or placeholder text is rejected without contacting the endpoint."),
	mcp.WithString("url",
		mcp.Required(),
		mcp.Description("Source page URL"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Selected text to clip"),
	),
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"clip_capture": {
		def:     captureToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapture },
	},
	"clip_submit": {
		def:     submitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSubmit },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the clip tools registered.
// Tools listed in cfg.DisabledTools are excluded. relay may be nil when no
// endpoint is configured; clip_submit then reports ENDPOINT_NOT_CONFIGURED.
func NewServer(source browser.Source, relay popup.Submitter, cfg *config.Config, logger *zap.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"clipper",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(source, relay, cfg, logger)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(source browser.Source, relay popup.Submitter, cfg *config.Config, logger *zap.Logger, version string) error {
	s := NewServer(source, relay, cfg, logger, version)
	return server.ServeStdio(s)
}
