package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/browser"
	"github.com/hpungsan/clipper/internal/clip"
	"github.com/hpungsan/clipper/internal/config"
	"github.com/hpungsan/clipper/internal/errors"
	"github.com/hpungsan/clipper/internal/popup"
	"github.com/hpungsan/clipper/internal/relay"
	"github.com/hpungsan/clipper/internal/web"
)

// app carries what every command needs. logger may be replaced by --verbose.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// sourceFlags are shared by commands that capture a selection.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Selection source: cdp|clipboard|stdin (default from config)"},
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Page URL for clipboard, stdin or --text selections"},
		&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Use this text as the selection instead of reading a source"},
		&cli.StringFlag{Name: "cdp-url", Usage: "Chrome DevTools URL (overrides config)"},
	}
}

// endpointFlags are shared by commands that submit clips.
func endpointFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "endpoint", Aliases: []string{"e"}, Usage: "Clip endpoint URL (overrides config and " + config.EnvEndpoint + ")"},
		&cli.IntFlag{Name: "timeout", Usage: "Request timeout in seconds (0 = none)"},
	}
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config, logger *zap.Logger) *cli.App {
	a := &app{cfg: cfg, logger: logger}

	cliApp := &cli.App{
		Name:    "clipper",
		Usage:   "Clip selected browser text to an endpoint",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Enable debug logging to stderr"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				a.logger = newLogger(true)
			}
			return nil
		},
		Commands: []*cli.Command{
			a.selectionCmd(),
			a.clipCmd(),
			a.uiCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// selectionCmd creates the selection command.
func (a *app) selectionCmd() *cli.Command {
	return &cli.Command{
		Name:  "selection",
		Usage: "Print the current selection and page URL as JSON",
		Flags: sourceFlags(),
		Action: func(c *cli.Context) error {
			cfg := a.configFor(c)
			src, err := a.sourceFor(c, cfg)
			if err != nil {
				return outputError(err)
			}

			rec := &popup.Recorder{}
			pending, err := popup.NewController(src, nil, rec, a.logger).LoadSelection(c.Context)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, selectionOutput{
				URL:         pending.SourceURL,
				Text:        pending.SelectedText,
				DisplayText: rec.Selection(),
				Chars:       clip.CountChars(pending.SelectedText),
			})
		},
	}
}

// selectionOutput is printed by the selection command.
type selectionOutput struct {
	URL         string `json:"url"`
	Text        string `json:"text"`
	DisplayText string `json:"display_text"`
	Chars       int    `json:"chars"`
}

// clipCmd creates the clip command.
func (a *app) clipCmd() *cli.Command {
	return &cli.Command{
		Name:  "clip",
		Usage: "Capture the selection and submit it to the clip endpoint",
		Flags: append(sourceFlags(), endpointFlags()...),
		Action: func(c *cli.Context) error {
			cfg := a.configFor(c)

			// Check the endpoint before touching the browser.
			r, err := newRelay(cfg, a.logger)
			if err != nil {
				return outputError(err)
			}
			src, err := a.sourceFor(c, cfg)
			if err != nil {
				return outputError(err)
			}

			ctrl := popup.NewController(src, r, popup.NewTerminal(c.App.Writer), a.logger)
			pending, err := ctrl.LoadSelection(c.Context)
			if err != nil {
				return outputError(err)
			}

			status := ctrl.SubmitClip(c.Context, pending)
			if status.Kind != clip.StatusSuccess {
				// The status line is already on stdout.
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// uiCmd creates the ui command.
func (a *app) uiCmd() *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the clip popup in a local web UI",
		Flags: append(append(sourceFlags(),
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config)"},
		), endpointFlags()...),
		Action: func(c *cli.Context) error {
			cfg := a.configFor(c)
			if bind := c.String("bind"); bind != "" {
				cfg.WebBind = bind
			}
			if port := c.Int("port"); port != 0 {
				cfg.WebPort = port
			}

			src, err := a.sourceFor(c, cfg)
			if err != nil {
				return outputError(err)
			}
			r, err := newRelay(cfg, a.logger)
			if err != nil {
				a.logger.Warn("clipping disabled until an endpoint is configured", zap.Error(err))
			}

			srv, err := web.NewServer(src, r, cfg, a.logger, Version)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, a.logger)
		},
	}
}

// configFor returns a copy of the loaded config with flag overrides applied.
func (a *app) configFor(c *cli.Context) *config.Config {
	overlay := &config.Config{
		Endpoint:              c.String("endpoint"),
		CDPURL:                c.String("cdp-url"),
		Source:                c.String("source"),
		RequestTimeoutSeconds: c.Int("timeout"),
	}
	return config.Merge(a.cfg, overlay)
}

// sourceFor picks the selection source for a command.
// --text always wins; stdin is read from the app's reader.
func (a *app) sourceFor(c *cli.Context, cfg *config.Config) (browser.Source, error) {
	url := c.String("url")
	if c.IsSet("text") {
		return browser.StaticSource{URL: url, Text: c.String("text")}, nil
	}
	if cfg.Source == config.SourceStdin {
		text, err := readInput(c.App.Reader)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		return browser.StaticSource{URL: url, Text: text}, nil
	}
	return newSource(cfg.Source, cfg, url, a.logger)
}

// newRelay builds a relay for cfg. The returned Submitter is nil on error.
func newRelay(cfg *config.Config, logger *zap.Logger) (popup.Submitter, error) {
	r, err := relay.New(cfg, relay.WithLogger(logger), relay.WithVersion(Version))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if cErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readInput reads all of r, dropping trailing line breaks.
func readInput(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
