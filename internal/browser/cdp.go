package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/clip"
	"github.com/hpungsan/clipper/internal/errors"
)

// selectionScript runs in the page and returns the selected text.
const selectionScript = `window.getSelection().toString()`

// Tab is a target listed by the DevTools /json/list endpoint.
type Tab struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CDPSource reads the selection from the active tab of a running Chrome.
// Chrome must be started with --remote-debugging-port.
type CDPSource struct {
	devtoolsURL string
	client      *http.Client
	logger      *zap.Logger

	// evaluate reads selection and location from tab; replaced in tests.
	evaluate func(ctx context.Context, tab Tab) (text, href string, err error)
}

// NewCDPSource creates a source for the browser at devtoolsURL (e.g. http://127.0.0.1:9222).
func NewCDPSource(devtoolsURL string, logger *zap.Logger) *CDPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CDPSource{
		devtoolsURL: strings.TrimRight(devtoolsURL, "/"),
		client:      http.DefaultClient,
		logger:      logger,
	}
	s.evaluate = s.evaluateInTab
	return s
}

// Tabs lists the browser's targets, most recently focused first.
func (s *CDPSource) Tabs(ctx context.Context) ([]Tab, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.devtoolsURL+"/json/list", nil)
	if err != nil {
		return nil, errors.NewBrowserUnavailable(s.devtoolsURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.NewBrowserUnavailable(s.devtoolsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewBrowserUnavailable(s.devtoolsURL, fmt.Errorf("target list returned %s", resp.Status))
	}

	var tabs []Tab
	if err := json.NewDecoder(resp.Body).Decode(&tabs); err != nil {
		return nil, errors.NewBrowserUnavailable(s.devtoolsURL, fmt.Errorf("decode target list: %w", err))
	}
	return tabs, nil
}

// ActiveTab returns the most recently focused page tab.
// DevTools pages and extension pages are skipped.
func (s *CDPSource) ActiveTab(ctx context.Context) (Tab, error) {
	tabs, err := s.Tabs(ctx)
	if err != nil {
		return Tab{}, err
	}
	for _, t := range tabs {
		if t.Type != "page" {
			continue
		}
		if strings.HasPrefix(t.URL, "devtools://") || strings.HasPrefix(t.URL, "chrome-extension://") {
			continue
		}
		return t, nil
	}
	return Tab{}, errors.NewNoActiveTab()
}

// Capture implements Source.
func (s *CDPSource) Capture(ctx context.Context) (Capture, error) {
	tab, err := s.ActiveTab(ctx)
	if err != nil {
		return Capture{}, err
	}

	text, href, err := s.evaluate(ctx, tab)
	if err != nil {
		return Capture{}, err
	}
	if href == "" {
		href = tab.URL
	}

	s.logger.Debug("captured selection",
		zap.String("tab", tab.ID),
		zap.String("url", href),
		zap.Int("chars", clip.CountChars(text)))

	return Capture{URL: href, Title: tab.Title, Text: text}, nil
}

// evaluateInTab attaches to tab and runs the selection script in its page.
func (s *CDPSource) evaluateInTab(ctx context.Context, tab Tab) (string, string, error) {
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, s.devtoolsURL)
	defer cancelAlloc()

	// tabCtx is the first context on this allocator: cancelling it only
	// disconnects. chromedp.Cancel must not be used, it closes the browser.
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithTargetID(target.ID(tab.ID)))
	defer cancelTab()

	var text, href string
	if err := chromedp.Run(tabCtx,
		chromedp.Evaluate(selectionScript, &text),
		chromedp.Location(&href),
	); err != nil {
		return "", "", errors.NewBrowserUnavailable(s.devtoolsURL, err)
	}
	return text, href, nil
}
