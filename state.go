package boot

// State is the lifecycle phase of a Driver.
type State int32

const (
	// StateBooting is the initial state, before the preload gate starts.
	StateBooting State = iota
	// StatePreloading means assets are being fetched.
	StatePreloading
	// StateSettingUp means subsystems are being acquired. A driver whose
	// graphics capability was unavailable stays here with the fallback shown.
	StateSettingUp
	// StateRunning means the frame callback is armed.
	StateRunning
	// StateFailed is terminal. No further frames execute.
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StatePreloading:
		return "preloading"
	case StateSettingUp:
		return "setting_up"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
