// Package session holds the presentation workflow state shared by the
// mediaman, coachman and sessionman services: one state machine per user,
// driven by events published on the session channel.
package session

import "context"

type State string

const (
	StateIdle          State = "idle"
	StateUploading     State = "uploading"
	StateUploaded      State = "uploaded"
	StateAnalyzing     State = "analyzing"
	StateFeedbackReady State = "feedback_ready"
	StateError         State = "error"
)

// Event is one state transition for one user's workflow.
type Event struct {
	UserID     string `json:"user_id"`
	State      State  `json:"state"`
	Progress   int    `json:"progress,omitempty"`
	VideoPath  string `json:"video_path,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Notifier publishes session events for the hub to fan out. Publishing is
// best effort everywhere: a lost event never fails the operation behind it.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// NopNotifier drops every event. Used when no event backend is configured.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, Event) error { return nil }

var transitions = map[State][]State{
	// Idle admits Analyzing directly so re-analysis of an already stored
	// video still works after the hub lost its in-memory state.
	StateIdle:          {StateUploading, StateAnalyzing},
	StateUploading:     {StateUploading, StateUploaded, StateError},
	StateUploaded:      {StateUploading, StateAnalyzing, StateError},
	StateAnalyzing:     {StateFeedbackReady, StateError},
	StateFeedbackReady: {StateUploading, StateAnalyzing, StateIdle},
	StateError:         {StateIdle, StateUploading, StateAnalyzing},
}

func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Snapshot is the current workflow position for one user.
type Snapshot struct {
	State      State  `json:"state"`
	Progress   int    `json:"progress"`
	VideoPath  string `json:"video_path,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
	Message    string `json:"message,omitempty"`
}

func NewSnapshot() Snapshot {
	return Snapshot{State: StateIdle}
}

// Apply folds an event into the snapshot. Illegal transitions and progress
// going backwards are dropped; an error state always clears progress.
func (s Snapshot) Apply(ev Event) (Snapshot, bool) {
	if !CanTransition(s.State, ev.State) {
		return s, false
	}
	if ev.State == StateUploading && s.State == StateUploading && ev.Progress < s.Progress {
		return s, false
	}

	next := Snapshot{State: ev.State}
	switch ev.State {
	case StateUploading:
		next.Progress = ev.Progress
	case StateUploaded:
		next.Progress = 100
		next.VideoPath = ev.VideoPath
		next.PreviewURL = ev.PreviewURL
	case StateAnalyzing:
		next.VideoPath = ev.VideoPath
		if next.VideoPath == "" {
			next.VideoPath = s.VideoPath
		}
		next.PreviewURL = s.PreviewURL
	case StateFeedbackReady:
		next.VideoPath = s.VideoPath
		next.PreviewURL = s.PreviewURL
		next.Feedback = ev.Feedback
	case StateError:
		next.Message = ev.Message
	}
	return next, true
}
