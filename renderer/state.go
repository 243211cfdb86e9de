package renderer

// State is the playback state of the bound source.
type State int

const (
	Stopped State = iota
	Loading
	Ready
	Playing
	Paused
)

var stateNames = [...]string{"stopped", "loading", "ready", "playing", "paused"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

const (
	StatusLoading  = "Loading..."
	StatusEnded    = "End of Video"
	StatusNoLoad   = "Cannot load file"
	statusReadyFmt = "'%s' ready to play"
)
