package clip

// StatusKind classifies a status message.
type StatusKind string

const (
	StatusIdle     StatusKind = "idle"
	StatusProgress StatusKind = "progress"
	StatusSuccess  StatusKind = "success"
	StatusFailure  StatusKind = "failure"
)

// Status messages shown to the user.
const (
	MsgSelectFirst   = "Please select some text first!"
	MsgInProgress    = "Clipping..."
	MsgSuccess       = "Clipped successfully!"
	MsgFailurePrefix = "Clipping failed: "
	MsgUnknownError  = "Unknown error"
)

// Status is a user-visible status line.
type Status struct {
	Kind   StatusKind `json:"status"`
	Text   string     `json:"text"`
	Detail string     `json:"detail,omitempty"`
}

// String renders the status as a single line.
func (s Status) String() string {
	if s.Detail == "" {
		return s.Text
	}
	return s.Text + " (" + s.Detail + ")"
}

// NeedsSelection is the status for a local validation failure.
func NeedsSelection() Status {
	return Status{Kind: StatusFailure, Text: MsgSelectFirst}
}

// InProgress is the status while a submission is in flight.
func InProgress() Status {
	return Status{Kind: StatusProgress, Text: MsgInProgress}
}

// FailedStatus is the status for a failed submission.
// An empty description falls back to MsgUnknownError.
func FailedStatus(description string) Status {
	if description == "" {
		description = MsgUnknownError
	}
	return Status{Kind: StatusFailure, Text: MsgFailurePrefix + description}
}

// StatusFor maps a relay result to the status shown to the user.
func StatusFor(r Result) Status {
	if r.Success {
		return Status{Kind: StatusSuccess, Text: MsgSuccess, Detail: r.Message}
	}
	return FailedStatus(r.Error)
}
