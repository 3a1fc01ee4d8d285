// Package browser reads the current selection and page URL from a source:
// a running Chrome over the DevTools protocol, the system clipboard, or fixed input.
package browser

import (
	"context"
	"fmt"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/hpungsan/clipper/internal/errors"
)

// Capture is what a source reports about the active page.
type Capture struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// Source yields the current selection and page URL.
// Implementations return a NO_ACTIVE_TAB error when there is no page to read.
type Source interface {
	Capture(ctx context.Context) (Capture, error)
}

// StaticSource reports a fixed URL and text, e.g. from flags or stdin.
type StaticSource struct {
	URL  string
	Text string
}

// Capture implements Source.
func (s StaticSource) Capture(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	return Capture{URL: s.URL, Text: s.Text}, nil
}

// ClipboardSource reads the selection from the system clipboard.
// The clipboard carries no page URL, so it is supplied by the caller.
type ClipboardSource struct {
	URL  string
	read func() (string, error)
}

// NewClipboardSource creates a ClipboardSource attributing clips to url.
func NewClipboardSource(url string) *ClipboardSource {
	return &ClipboardSource{URL: url, read: readSystemClipboard}
}

// Capture implements Source.
func (s *ClipboardSource) Capture(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	read := s.read
	if read == nil {
		read = readSystemClipboard
	}
	text, err := read()
	if err != nil {
		return Capture{}, errors.NewBrowserUnavailable("clipboard", err)
	}
	return Capture{URL: s.URL, Text: text}, nil
}

// readSystemClipboard reads text from the system clipboard.
func readSystemClipboard() (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("clipboard operations not supported on %s", runtime.GOOS)
	}
	return clipboard.ReadAll()
}
