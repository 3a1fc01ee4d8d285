package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/browser"
	"github.com/hpungsan/clipper/internal/clip"
	"github.com/hpungsan/clipper/internal/config"
	"github.com/hpungsan/clipper/internal/errors"
	"github.com/hpungsan/clipper/internal/popup"
)

// maxBodyBytes bounds form and JSON request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the clip popup.
type Handlers struct {
	source   browser.Source
	relay    popup.Submitter
	cfg      *config.Config
	renderer *Renderer
	logger   *zap.Logger
}

// apiClipResponse is the JSON body returned by POST /api/clip.
type apiClipResponse struct {
	clip.Result
	Status clip.Status `json:"status"`
}

// controller builds a per-request controller recording to rec.
func (h *Handlers) controller(rec *popup.Recorder) *popup.Controller {
	return popup.NewController(h.source, h.relay, rec, h.logger)
}

// HandlePopup handles GET /: capture the selection and show it with a Clip button.
func (h *Handlers) HandlePopup(w http.ResponseWriter, r *http.Request) {
	rec := &popup.Recorder{}
	pending, err := h.controller(rec).LoadSelection(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "popup", h.popupData(pending, rec.Selection(), nil))
}

// HandleClip handles POST /clip: submit the form's url and text and show the outcome.
func (h *Handlers) HandleClip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form body"))
		return
	}

	pending := clip.PendingClip{
		SourceURL:    r.PostForm.Get("url"),
		SelectedText: r.PostForm.Get("text"),
	}

	rec := &popup.Recorder{}
	status := h.controller(rec).SubmitClip(r.Context(), pending)

	h.renderer.renderPage(w, "popup", h.popupData(pending, pending.DisplayText(), &status))
}

// HandleAPIClip handles POST /api/clip: submit a {"url","text"} JSON body.
// The response mirrors the relay result plus the status line the popup would show.
func (h *Handlers) HandleAPIClip(w http.ResponseWriter, r *http.Request) {
	// Errors from this route are always JSON.
	r.Header.Set("Accept", "application/json")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("request body too large"))
		return
	}

	var req clip.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
		return
	}

	rec := &popup.Recorder{}
	status := h.controller(rec).SubmitClip(r.Context(), clip.PendingClip{
		SourceURL:    req.URL,
		SelectedText: req.Text,
	})

	resp := apiClipResponse{Status: status}
	code := http.StatusOK
	switch status.Kind {
	case clip.StatusSuccess:
		resp.Result = clip.Succeeded(status.Detail)
	case clip.StatusFailure:
		resp.Result = clip.Failed(strings.TrimPrefix(status.Text, clip.MsgFailurePrefix))
		if status.Text == clip.MsgSelectFirst {
			code = http.StatusUnprocessableEntity
		}
	}
	renderJSON(w, code, resp)
}

func (h *Handlers) popupData(pending clip.PendingClip, display string, status *clip.Status) PopupPageData {
	data := PopupPageData{
		PageData: PageData{
			Title:   "Clip selection",
			Version: h.renderer.version,
		},
		Pending:     pending,
		DisplayText: display,
		Chars:       clip.CountChars(pending.SelectedText),
		Status:      status,
		Endpoint:    h.cfg.Endpoint,
		Configured:  h.relay != nil,
	}
	if clip.Validate(pending) == nil {
		data.PreviewHTML = renderMarkdown(clip.Preview(pending))
	}
	return data
}
