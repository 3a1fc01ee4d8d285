// Package popup drives the clip interaction: capture the selection, show it,
// and submit it through the relay when the user confirms.
package popup

import (
	"context"

	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/browser"
	"github.com/hpungsan/clipper/internal/clip"
	"github.com/hpungsan/clipper/internal/errors"
)

// Submitter starts an asynchronous submission and delivers one Result.
type Submitter interface {
	Submit(ctx context.Context, pending clip.PendingClip) <-chan clip.Result
}

// Display shows the captured selection and status lines.
type Display interface {
	ShowSelection(text string)
	ShowStatus(status clip.Status)
}

// Controller wires a selection source, a submitter and a display.
type Controller struct {
	source  browser.Source
	relay   Submitter
	display Display
	logger  *zap.Logger
}

// NewController creates a Controller. relay may be nil for capture-only use.
func NewController(source browser.Source, relay Submitter, display Display, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		source:  source,
		relay:   relay,
		display: display,
		logger:  logger,
	}
}

// LoadSelection captures the active tab's selection and URL and shows the text.
// With no active tab it does nothing and returns a zero PendingClip and nil error.
// Other source failures are returned without touching the display.
func (c *Controller) LoadSelection(ctx context.Context) (clip.PendingClip, error) {
	capture, err := c.source.Capture(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNoActiveTab) {
			c.logger.Debug("no active tab; nothing to capture")
			return clip.PendingClip{}, nil
		}
		c.logger.Warn("selection capture failed", zap.Error(err))
		return clip.PendingClip{}, err
	}

	pending := clip.PendingClip{SourceURL: capture.URL, SelectedText: capture.Text}
	c.display.ShowSelection(pending.DisplayText())
	return pending, nil
}

// SubmitClip sends pending to the relay and reports the outcome on the display.
// Empty or placeholder selections fail locally without contacting the relay.
func (c *Controller) SubmitClip(ctx context.Context, pending clip.PendingClip) clip.Status {
	if err := clip.Validate(pending); err != nil {
		return c.show(clip.NeedsSelection())
	}
	if c.relay == nil {
		return c.show(clip.FailedStatus("clip endpoint is not configured"))
	}

	c.show(clip.InProgress())

	select {
	case res := <-c.relay.Submit(ctx, pending):
		return c.show(clip.StatusFor(res))
	case <-ctx.Done():
		return c.show(clip.FailedStatus(ctx.Err().Error()))
	}
}

func (c *Controller) show(s clip.Status) clip.Status {
	c.display.ShowStatus(s)
	return s
}
