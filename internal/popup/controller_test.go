package popup

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/clipper/internal/browser"
	"github.com/hpungsan/clipper/internal/clip"
	"github.com/hpungsan/clipper/internal/config"
	"github.com/hpungsan/clipper/internal/errors"
	"github.com/hpungsan/clipper/internal/relay"
)

// fakeRelay records submissions and answers with a fixed result.
type fakeRelay struct {
	mu      sync.Mutex
	calls   []clip.PendingClip
	result  clip.Result
	blocked chan struct{} // when set, Submit never answers
}

func (f *fakeRelay) Submit(_ context.Context, pending clip.PendingClip) <-chan clip.Result {
	f.mu.Lock()
	f.calls = append(f.calls, pending)
	f.mu.Unlock()

	ch := make(chan clip.Result, 1)
	if f.blocked == nil {
		ch <- f.result
	}
	return ch
}

func (f *fakeRelay) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// failingSource always returns err.
type failingSource struct{ err error }

func (s failingSource) Capture(context.Context) (browser.Capture, error) {
	return browser.Capture{}, s.err
}

func TestLoadSelection_ShowsText(t *testing.T) {
	rec := &Recorder{}
	c := NewController(browser.StaticSource{URL: "https://example.com", Text: "Hello world"}, nil, rec, nil)

	pending, err := c.LoadSelection(context.Background())
	require.NoError(t, err)
	require.Equal(t, clip.PendingClip{SourceURL: "https://example.com", SelectedText: "Hello world"}, pending)
	require.Equal(t, "Hello world", rec.Selection())
}

func TestLoadSelection_EmptyShowsPlaceholder(t *testing.T) {
	rec := &Recorder{}
	c := NewController(browser.StaticSource{URL: "https://example.com"}, nil, rec, nil)

	pending, err := c.LoadSelection(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending.SelectedText)
	require.Equal(t, clip.Placeholder, rec.Selection())
}

func TestLoadSelection_NoActiveTabIsNoOp(t *testing.T) {
	rec := &Recorder{}
	c := NewController(failingSource{err: errors.NewNoActiveTab()}, nil, rec, nil)

	pending, err := c.LoadSelection(context.Background())
	require.NoError(t, err)
	require.Equal(t, clip.PendingClip{}, pending)
	require.Empty(t, rec.Selection())
	require.Empty(t, rec.Statuses())
}

func TestLoadSelection_SourceErrorReturned(t *testing.T) {
	rec := &Recorder{}
	c := NewController(failingSource{err: errors.NewBrowserUnavailable("x", stderrors.New("refused"))}, nil, rec, nil)

	_, err := c.LoadSelection(context.Background())
	require.True(t, errors.Is(err, errors.ErrBrowserUnavailable))
	require.Empty(t, rec.Selection())
}

func TestSubmitClip_ValidationFailureSkipsRelay(t *testing.T) {
	for _, text := range []string{"", "   ", clip.Placeholder} {
		fr := &fakeRelay{result: clip.Succeeded("ok")}
		rec := &Recorder{}
		c := NewController(nil, fr, rec, nil)

		status := c.SubmitClip(context.Background(), clip.PendingClip{SourceURL: "https://example.com", SelectedText: text})

		require.Equal(t, clip.StatusFailure, status.Kind)
		require.Equal(t, clip.MsgSelectFirst, status.Text)
		require.Equal(t, 0, fr.callCount(), "relay called for %q", text)
		require.Len(t, rec.Statuses(), 1)
	}
}

func TestSubmitClip_Success(t *testing.T) {
	fr := &fakeRelay{result: clip.Succeeded("ok")}
	rec := &Recorder{}
	c := NewController(nil, fr, rec, nil)

	status := c.SubmitClip(context.Background(), clip.PendingClip{SourceURL: "https://example.com", SelectedText: "hi"})

	require.Equal(t, clip.StatusSuccess, status.Kind)
	require.Contains(t, status.String(), "ok")
	statuses := rec.Statuses()
	require.Len(t, statuses, 2)
	require.Equal(t, clip.StatusProgress, statuses[0].Kind)
	require.Equal(t, "Clipping...", statuses[0].Text)
	require.Equal(t, status, statuses[1])
	require.Equal(t, []clip.PendingClip{{SourceURL: "https://example.com", SelectedText: "hi"}}, fr.calls)
}

func TestSubmitClip_FailureShowsError(t *testing.T) {
	fr := &fakeRelay{result: clip.Failed("network down")}
	rec := &Recorder{}
	c := NewController(nil, fr, rec, nil)

	status := c.SubmitClip(context.Background(), clip.PendingClip{SourceURL: "u", SelectedText: "hi"})

	require.Equal(t, clip.StatusFailure, status.Kind)
	require.Contains(t, status.String(), "network down")
	require.Equal(t, status, rec.Last())
}

func TestSubmitClip_FailureWithoutDetail(t *testing.T) {
	fr := &fakeRelay{result: clip.Result{Success: false}}
	c := NewController(nil, fr, &Recorder{}, nil)

	status := c.SubmitClip(context.Background(), clip.PendingClip{SourceURL: "u", SelectedText: "hi"})

	require.Equal(t, "Clipping failed: Unknown error", status.String())
}

func TestSubmitClip_ContextCancelled(t *testing.T) {
	fr := &fakeRelay{blocked: make(chan struct{})}
	rec := &Recorder{}
	c := NewController(nil, fr, rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status := c.SubmitClip(ctx, clip.PendingClip{SourceURL: "u", SelectedText: "hi"})

	require.Equal(t, clip.StatusFailure, status.Kind)
	require.Contains(t, status.String(), "context canceled")
}

func TestSubmitClip_NoRelay(t *testing.T) {
	c := NewController(nil, nil, &Recorder{}, nil)
	status := c.SubmitClip(context.Background(), clip.PendingClip{SourceURL: "u", SelectedText: "hi"})
	require.Equal(t, clip.StatusFailure, status.Kind)
	require.Contains(t, status.String(), "not configured")
}

// TestSubmitClip_Properties checks the relay is contacted exactly when the selection is submittable.
func TestSubmitClip_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	blank := gen.OneGenOf(
		gen.Const(""),
		gen.Const(clip.Placeholder),
		gen.IntRange(1, 8).Map(func(n int) string { return strings.Repeat(" \t\n", n) }),
	)

	properties.Property("empty or placeholder selections never reach the relay", prop.ForAll(
		func(text, url string) bool {
			fr := &fakeRelay{result: clip.Succeeded("ok")}
			c := NewController(nil, fr, &Recorder{}, nil)
			status := c.SubmitClip(context.Background(), clip.PendingClip{SourceURL: url, SelectedText: text})
			return fr.callCount() == 0 && status.Text == clip.MsgSelectFirst
		},
		blank,
		gen.AlphaString(),
	))

	properties.Property("other selections reach the relay exactly once, unchanged", prop.ForAll(
		func(text, url string) bool {
			fr := &fakeRelay{result: clip.Succeeded("ok")}
			c := NewController(nil, fr, &Recorder{}, nil)
			c.SubmitClip(context.Background(), clip.PendingClip{SourceURL: url, SelectedText: text})
			return fr.callCount() == 1 && fr.calls[0].SelectedText == text && fr.calls[0].SourceURL == url
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestEndToEnd runs capture and submission against a real relay and a fake endpoint.
func TestEndToEnd(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies [][]byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "saved"})
	}))
	defer srv.Close()

	r, err := relay.New(&config.Config{Endpoint: srv.URL + "/web_clip"})
	require.NoError(t, err)

	var out bytes.Buffer
	c := NewController(
		browser.StaticSource{URL: "https://example.com", Text: "Hello world"},
		r,
		NewTerminal(&out),
		nil,
	)

	pending, err := c.LoadSelection(context.Background())
	require.NoError(t, err)
	status := c.SubmitClip(context.Background(), pending)

	require.Equal(t, clip.StatusSuccess, status.Kind)
	require.Contains(t, status.String(), "Clipped successfully!")
	require.Contains(t, out.String(), "Hello world")
	require.Contains(t, out.String(), "Clipped successfully!")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	require.JSONEq(t, `{"url":"https://example.com","text":"Hello world"}`, string(bodies[0]))
}

func TestTerminal_ShowStatus(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)

	term.ShowStatus(clip.InProgress())
	term.ShowStatus(clip.FailedStatus("network down"))
	term.ShowStatus(clip.Status{Kind: "weird", Text: "plain"})

	got := out.String()
	require.Contains(t, got, "Clipping...")
	require.Contains(t, got, "Clipping failed: network down")
	require.Contains(t, got, "plain")
}

func TestRecorder_LastDefaultsToIdle(t *testing.T) {
	rec := &Recorder{}
	require.Equal(t, clip.StatusIdle, rec.Last().Kind)
}
