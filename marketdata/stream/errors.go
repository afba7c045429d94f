package stream

import "errors"

var (
	// ErrStartCalledMultipleTimes is returned when Start has been called multiple times on a single subscription
	ErrStartCalledMultipleTimes = errors.New("tried to call Start multiple times")
	// ErrSubscriptionStopped is returned when Start is called on a subscription
	// (or SetSymbol on a manager) that has already been stopped
	ErrSubscriptionStopped = errors.New("subscription has been stopped")
	// ErrEmptySymbol is returned when a subscription is started without a symbol
	ErrEmptySymbol = errors.New("empty symbol")
	// ErrConnectTimeout is recorded when the connection could not be
	// established within the configured connect timeout
	ErrConnectTimeout = errors.New("connect timeout")
)
