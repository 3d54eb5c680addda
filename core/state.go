package live

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateClosing
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// CanStart reports whether a new session may be started from s.
func (s State) CanStart() bool {
	return s == StateIdle || s == StateClosed
}

// IsLive reports whether s holds session resources.
func (s State) IsLive() bool {
	return s == StateConnecting || s == StateActive
}

const (
	statusSessionEnded  = "Session ended. You may begin again."
	statusConnected     = "Connected. Speak now."
	statusTurnComplete  = "Turn complete. You may speak."
	statusInterrupted   = "Interrupted. Listening..."
	statusConnectFailed = "Could not initiate the session."
	statusConnectionErr = "Connection error. Please try again."
	statusClosing       = "Ending session..."
)

func statusConnecting(name string) string { return "Connecting with " + name + "..." }
func statusResponding(name string) string { return name + " is responding..." }
