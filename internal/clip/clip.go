package clip

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/clipper/internal/errors"
)

// Placeholder is shown in place of an empty selection. It is never submitted.
const Placeholder = "No text selected."

// PendingClip is a captured (URL, selected text) pair awaiting submission.
// It is produced by selection capture and handed directly to submission.
type PendingClip struct {
	SourceURL    string `json:"url"`
	SelectedText string `json:"text"`
}

// DisplayText returns the text to show for the selection, or Placeholder when empty.
func (p PendingClip) DisplayText() string {
	if p.SelectedText == "" {
		return Placeholder
	}
	return p.SelectedText
}

// Request is the JSON body POSTed to the clip endpoint.
type Request struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Result is the normalized outcome of one submission.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Succeeded builds a successful Result carrying the server message.
func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

// Failed builds a failed Result carrying a failure description.
func Failed(description string) Result {
	return Result{Success: false, Error: description}
}

// Validate reports whether the pending clip may be submitted.
// Empty (after trimming) and placeholder selections are rejected.
func Validate(p PendingClip) error {
	text := strings.TrimSpace(p.SelectedText)
	if text == "" || text == Placeholder {
		return errors.NewNoSelection()
	}
	return nil
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// Preview renders the pending clip as a markdown block quote followed by a source link.
func Preview(p PendingClip) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(p.DisplayText(), "\n"), "\n") {
		b.WriteString("> ")
		b.WriteString(escapeMarkdown(line))
		b.WriteString("\n")
	}
	if p.SourceURL != "" {
		fmt.Fprintf(&b, "\nSource: <%s>\n", p.SourceURL)
	}
	return b.String()
}

// markdownSpecial lists characters that would otherwise be read as markdown syntax.
var markdownSpecial = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "#", `\#`,
)

// escapeMarkdown keeps selected text literal when rendered as markdown.
func escapeMarkdown(s string) string {
	return markdownSpecial.Replace(s)
}
