package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/browser"
	"github.com/hpungsan/clipper/internal/config"
	"github.com/hpungsan/clipper/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"selection": true, "clip": true, "ui": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false // No args → MCP server
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	// Global flags before the subcommand → CLI
	return len(arg) > 1 && arg[0] == '-'
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
    _ _
  __| (_)_ __  _ __   ___ _ __
 / _| | | '_ \| '_ \ / _ \ '__|
| (_| | | |_) | |_) |  __/ |
 \__|_|_| .__/| .__/ \___|_|
        |_|   |_|

  Clip selected browser text to your endpoint

  Usage: clipper <command> [options]
         clipper --help

  MCP server mode requires piped input.`)
}

// newLogger builds the process logger. Both variants write to stderr.
func newLogger(verbose bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// exit prints err (if it carries a message) and exits with status 1.
func exit(err error) {
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before loading config
	if isHelpOrVersion(os.Args) {
		if err := newCLIApp(config.DefaultConfig(), zap.NewNop()).Run(os.Args); err != nil {
			exit(err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		exit(fmt.Errorf("could not determine home directory: %w", err))
	}

	cfg, err := config.Load(filepath.Join(homeDir, ".clipper"))
	if err != nil {
		exit(fmt.Errorf("failed to load config: %w", err))
	}

	// CLI mode: known subcommand or global flag
	if isCLIMode(os.Args) {
		logger := newLogger(false)
		defer func() { _ = logger.Sync() }()

		if err := newCLIApp(cfg, logger).Run(os.Args); err != nil {
			exit(err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'clipper --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	logger := newLogger(os.Getenv("CLIPPER_VERBOSE") != "")
	defer func() { _ = logger.Sync() }()

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}

	// stdin carries the MCP protocol, so it cannot be a selection source here.
	source := cfg.Source
	if source == config.SourceStdin {
		logger.Warn("stdin source is unavailable in MCP mode; using cdp")
		source = config.SourceCDP
	}
	src, err := newSource(source, cfg, "", logger)
	if err != nil {
		exit(err)
	}

	relay, err := newRelay(cfg, logger)
	if err != nil {
		logger.Warn("clip_submit disabled until an endpoint is configured", zap.Error(err))
	}

	if err := mcp.Run(src, relay, cfg, logger, Version); err != nil {
		exit(err)
	}
}

// newSource builds the selection source named by source.
// url attributes clipboard selections; it is ignored by the cdp source.
func newSource(source string, cfg *config.Config, url string, logger *zap.Logger) (browser.Source, error) {
	if err := config.ValidateSource(source); err != nil {
		return nil, err
	}
	switch source {
	case config.SourceClipboard:
		return browser.NewClipboardSource(url), nil
	case config.SourceStdin:
		return nil, fmt.Errorf("stdin source needs input; use --text or pipe to 'clipper clip --source stdin'")
	default:
		return browser.NewCDPSource(cfg.CDPURL, logger), nil
	}
}
