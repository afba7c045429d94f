package stream

import "time"

// Trade is a single executed trade pushed by the stream
type Trade struct {
	Symbol     string
	Price      float64
	Volume     float64
	Timestamp  time.Time
	Conditions []string
}

// State is the connection state of a subscription
type State int

const (
	// Idle is the state of a subscription that has not been started
	Idle State = iota
	// Connecting means the connection is being established
	Connecting
	// Subscribed means the connection is open and the subscribe directive has been sent
	Subscribed
	// Disconnected means the connection was lost, see Status.Reason.
	// The subscription may reconnect from here.
	Disconnected
	// Terminated means the subscription has been torn down or gave up reconnecting
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	case Disconnected:
		return "disconnected"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Reason tells why a subscription got disconnected
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonTransportError means reading, writing or dialing failed
	ReasonTransportError
	// ReasonClosed means the server closed the connection
	ReasonClosed
	// ReasonTimeout means the connection could not be established in time
	ReasonTimeout
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonTransportError:
		return "transport error"
	case ReasonClosed:
		return "closed"
	case ReasonTimeout:
		return "timeout"
	}
	return "unknown"
}

// Status is a point in time view of a subscription
type Status struct {
	ID     string
	Symbol string
	State  State
	Reason Reason
	// Err is the error behind the last disconnection or termination
	Err error
	// LatestPrice is only meaningful if HasPrice is true
	LatestPrice float64
	HasPrice    bool
}
