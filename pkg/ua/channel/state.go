package channel

// State is a secure channel's position in the handshake/lifecycle
// state machine (spec.md §4.5).
type State int

const (
	StateClosed State = iota
	StateHelSent
	StateHelReceived
	StateAckSent
	StateOpnSent
	StateOpnReceived
	StateOpen
	StateRenewing
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateHelSent:
		return "HelSent"
	case StateHelReceived:
		return "HelReceived"
	case StateAckSent:
		return "AckSent"
	case StateOpnSent:
		return "OpnSent"
	case StateOpnReceived:
		return "OpnReceived"
	case StateOpen:
		return "Open"
	case StateRenewing:
		return "Renewing"
	case StateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}
