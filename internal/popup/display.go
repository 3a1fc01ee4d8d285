package popup

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/clipper/internal/clip"
)

// Recorder is an in-memory Display. It keeps the last selection and every status shown.
type Recorder struct {
	mu        sync.Mutex
	selection string
	statuses  []clip.Status
}

// ShowSelection implements Display.
func (r *Recorder) ShowSelection(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection = text
}

// ShowStatus implements Display.
func (r *Recorder) ShowStatus(status clip.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

// Selection returns the last selection shown.
func (r *Recorder) Selection() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection
}

// Statuses returns every status shown, oldest first.
func (r *Recorder) Statuses() []clip.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]clip.Status(nil), r.statuses...)
}

// Last returns the most recent status, or an idle status when none was shown.
func (r *Recorder) Last() clip.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return clip.Status{Kind: clip.StatusIdle}
	}
	return r.statuses[len(r.statuses)-1]
}

// Terminal writes the selection and status lines to a terminal, coloured by status kind.
type Terminal struct {
	out       io.Writer
	selection lipgloss.Style
	kinds     map[clip.StatusKind]lipgloss.Style
}

// NewTerminal creates a Terminal writing to out.
// Colours degrade to plain text when out is not a terminal.
func NewTerminal(out io.Writer) *Terminal {
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		out: out,
		selection: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		kinds: map[clip.StatusKind]lipgloss.Style{
			clip.StatusIdle:     r.NewStyle(),
			clip.StatusProgress: r.NewStyle().Foreground(lipgloss.Color("8")),
			clip.StatusSuccess:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
			clip.StatusFailure:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
	}
}

// ShowSelection implements Display.
func (t *Terminal) ShowSelection(text string) {
	fmt.Fprintln(t.out, t.selection.Render(text))
}

// ShowStatus implements Display.
func (t *Terminal) ShowStatus(status clip.Status) {
	style, ok := t.kinds[status.Kind]
	if !ok {
		style = t.kinds[clip.StatusIdle]
	}
	fmt.Fprintln(t.out, style.Render(status.String()))
}
