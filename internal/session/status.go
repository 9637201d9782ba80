package session

import "time"

// Phase is where a feature is in its generate/show cycle.
type Phase string

const (
	PhaseIdle           Phase = ""
	PhaseConfiguring    Phase = "configuring"
	PhaseGenerating     Phase = "generating"
	PhaseShowingResults Phase = "results"
)

// StaleAfter is how long a Generating phase blocks new requests. A request
// that died mid-call leaves the phase behind; after this it is ignored.
const StaleAfter = 5 * time.Minute

// NoticeKind is the severity of a notice.
type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeWarning NoticeKind = "warning"
)

// Notice is a message for the user attached to a feature. MessageID is an
// i18n message ID; Detail is optional untranslated context.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	MessageID string     `json:"message_id"`
	Detail    string     `json:"detail,omitempty"`
}

// Status tracks one feature's phase and its latest notice.
type Status struct {
	Phase  Phase     `json:"phase,omitempty"`
	Notice *Notice   `json:"notice,omitempty"`
	Since  time.Time `json:"since,omitempty"`
}

// Busy reports whether a live generation holds the feature at now.
func (s *Status) Busy(now time.Time) bool {
	return s.Phase == PhaseGenerating && now.Sub(s.Since) < StaleAfter
}

// Begin moves the feature to Generating. It fails with ErrBusy while another
// generation is live.
func (s *Status) Begin(now time.Time) error {
	if s.Busy(now) {
		return ErrBusy
	}
	s.Phase = PhaseGenerating
	s.Since = now
	s.Notice = nil
	return nil
}

// Succeed moves a generating feature to ShowingResults.
func (s *Status) Succeed() error {
	if s.Phase != PhaseGenerating {
		return ErrInvalidTransition
	}
	s.Phase = PhaseShowingResults
	s.Since = time.Time{}
	return nil
}

// Fail moves a generating feature back to Configuring with a notice.
func (s *Status) Fail(n Notice) error {
	if s.Phase != PhaseGenerating {
		return ErrInvalidTransition
	}
	s.Phase = PhaseConfiguring
	s.Since = time.Time{}
	s.Notice = &n
	return nil
}

// Reject records a notice for input that never reached generation.
func (s *Status) Reject(n Notice) {
	if s.Phase == PhaseGenerating {
		return
	}
	s.Phase = PhaseConfiguring
	s.Notice = &n
}

// Warn attaches a notice without changing the phase.
func (s *Status) Warn(n Notice) {
	s.Notice = &n
}
