package wizard

import "fmt"

// State is one node of the installer sequence.
type State int

const (
	StateIdle State = iota
	StateLaunched
	StateWelcome
	StateLicense
	StateActivation
	StateInstalling
	StateAwaitingCompletion
	StateVerified
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:               "Idle",
	StateLaunched:           "Launched",
	StateWelcome:            "Welcome",
	StateLicense:            "License",
	StateActivation:         "Activation",
	StateInstalling:         "Installing",
	StateAwaitingCompletion: "AwaitingCompletion",
	StateVerified:           "Verified",
	StateDone:               "Done",
	StateFailed:             "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText lets states serialize by name in reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no step follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
