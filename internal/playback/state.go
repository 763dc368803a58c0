package playback

// State is the play state of the controller.
type State int

const (
	// StateIdle means no article is selected.
	StateIdle State = iota
	// StateReady means an article is bound and paused.
	StateReady
	// StatePlaying means audio is playing.
	StatePlaying
	// StateErrored means loading or playing failed. Playing may be retried.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the current playback.
type Session struct {
	ArticleID     string // id of the selected article, empty when idle
	Source        string // bound audio url, empty if the article has none
	CurrentTime   float64
	Duration      float64 // zero until the source metadata has loaded
	State         State
	PlaybackSpeed float64
	LastError     string // display text of the last failure
}

// IsPlaying reports whether audio is playing.
func (s Session) IsPlaying() bool {
	return s.State == StatePlaying
}

// Progress returns the position as a percentage of the duration.
func (s Session) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := s.CurrentTime / s.Duration * 100
	if p > 100 {
		return 100
	}
	return p
}

// CanPlay reports whether TogglePlay would try to start playback.
func (s Session) CanPlay() bool {
	return s.Source != "" && (s.State == StateReady || s.State == StateErrored)
}
