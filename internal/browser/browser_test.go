package browser

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hpungsan/clipper/internal/errors"
)

// fakeDevTools serves a fixed /json/list response.
func fakeDevTools(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/list" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

const targetList = `[
  {"id": "W1", "type": "service_worker", "title": "sw", "url": "https://example.com/sw.js"},
  {"id": "D1", "type": "page", "title": "DevTools", "url": "devtools://devtools/bundled/inspector.html"},
  {"id": "P1", "type": "page", "title": "Example", "url": "https://example.com/article"},
  {"id": "P2", "type": "page", "title": "Other", "url": "https://other.example.com/"}
]`

func TestCDPSource_ActiveTab(t *testing.T) {
	s := NewCDPSource(fakeDevTools(t, http.StatusOK, targetList)+"/", nil)

	tab, err := s.ActiveTab(context.Background())
	if err != nil {
		t.Fatalf("ActiveTab() error = %v", err)
	}
	if tab.ID != "P1" {
		t.Errorf("ActiveTab().ID = %q, want P1", tab.ID)
	}
}

func TestCDPSource_NoPageTabs(t *testing.T) {
	s := NewCDPSource(fakeDevTools(t, http.StatusOK, `[{"id":"W1","type":"service_worker","url":"x"}]`), nil)

	_, err := s.Capture(context.Background())
	if !errors.Is(err, errors.ErrNoActiveTab) {
		t.Fatalf("Capture() error = %v, want NO_ACTIVE_TAB", err)
	}
}

func TestCDPSource_Capture(t *testing.T) {
	s := NewCDPSource(fakeDevTools(t, http.StatusOK, targetList), nil)
	var evaluated Tab
	s.evaluate = func(_ context.Context, tab Tab) (string, string, error) {
		evaluated = tab
		return "Hello world", "https://example.com/article#intro", nil
	}

	got, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if evaluated.ID != "P1" {
		t.Errorf("evaluated tab = %q, want P1", evaluated.ID)
	}
	if got.Text != "Hello world" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.URL != "https://example.com/article#intro" {
		t.Errorf("URL = %q, want location from page", got.URL)
	}
	if got.Title != "Example" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestCDPSource_CaptureFallsBackToListedURL(t *testing.T) {
	s := NewCDPSource(fakeDevTools(t, http.StatusOK, targetList), nil)
	s.evaluate = func(context.Context, Tab) (string, string, error) { return "x", "", nil }

	got, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if got.URL != "https://example.com/article" {
		t.Errorf("URL = %q, want listed tab URL", got.URL)
	}
}

func TestCDPSource_EvaluateError(t *testing.T) {
	s := NewCDPSource(fakeDevTools(t, http.StatusOK, targetList), nil)
	s.evaluate = func(context.Context, Tab) (string, string, error) {
		return "", "", errors.NewBrowserUnavailable("test", stderrors.New("websocket closed"))
	}

	if _, err := s.Capture(context.Background()); !errors.Is(err, errors.ErrBrowserUnavailable) {
		t.Fatalf("Capture() error = %v, want BROWSER_UNAVAILABLE", err)
	}
}

func TestCDPSource_Unreachable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"bad json", http.StatusOK, "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCDPSource(fakeDevTools(t, tt.status, tt.body), nil)
			if _, err := s.Tabs(context.Background()); !errors.Is(err, errors.ErrBrowserUnavailable) {
				t.Fatalf("Tabs() error = %v, want BROWSER_UNAVAILABLE", err)
			}
		})
	}

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		s := NewCDPSource(url, nil)
		if _, err := s.Tabs(context.Background()); !errors.Is(err, errors.ErrBrowserUnavailable) {
			t.Fatalf("Tabs() error = %v, want BROWSER_UNAVAILABLE", err)
		}
	})
}

func TestStaticSource(t *testing.T) {
	got, err := StaticSource{URL: "https://example.com", Text: "abc"}.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if got.URL != "https://example.com" || got.Text != "abc" {
		t.Errorf("Capture() = %+v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (StaticSource{}).Capture(ctx); err == nil {
		t.Error("Capture() with cancelled context: expected error")
	}
}

func TestClipboardSource(t *testing.T) {
	s := &ClipboardSource{URL: "https://example.com", read: func() (string, error) { return "copied", nil }}
	got, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if got.Text != "copied" || got.URL != "https://example.com" {
		t.Errorf("Capture() = %+v", got)
	}

	failing := &ClipboardSource{read: func() (string, error) { return "", stderrors.New("no xclip") }}
	if _, err := failing.Capture(context.Background()); !errors.Is(err, errors.ErrBrowserUnavailable) {
		t.Errorf("Capture() error = %v, want BROWSER_UNAVAILABLE", err)
	}
}
