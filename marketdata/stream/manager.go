package stream

import (
	"context"
	"sync"
)

// Manager keeps at most one live subscription and replaces it when the
// symbol changes. Subscriptions are never reused across symbols.
type Manager struct {
	opts []Option

	mu     sync.Mutex
	sub    *Subscription
	closed bool
}

// NewManager creates a manager. opts are applied to every subscription it starts.
func NewManager(opts ...Option) *Manager {
	return &Manager{opts: opts}
}

// SetSymbol switches the live subscription to symbol. The previous
// subscription is fully stopped (unsubscribed and closed) before the new one
// is started. Setting the current symbol again is a no-op unless its
// subscription has terminated. An empty symbol only stops the current subscription.
func (m *Manager) SetSymbol(ctx context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSubscriptionStopped
	}
	if m.sub != nil && m.sub.Symbol() == symbol && m.sub.State() != Terminated {
		return nil
	}
	if m.sub != nil {
		m.sub.Stop()
		m.sub = nil
	}
	if symbol == "" {
		return nil
	}

	sub := NewSubscription(symbol, m.opts...)
	if err := sub.Start(ctx); err != nil {
		return err
	}
	m.sub = sub
	return nil
}

// Subscription returns the current subscription or nil
func (m *Manager) Subscription() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub
}

// Status returns the status of the current subscription. It is Idle if
// there is none.
func (m *Manager) Status() Status {
	m.mu.Lock()
	sub := m.sub
	m.mu.Unlock()

	if sub == nil {
		return Status{State: Idle}
	}
	return sub.Status()
}

// Close stops the current subscription. The manager can't be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.sub != nil {
		m.sub.Stop()
		m.sub = nil
	}
}

// Run starts a subscription for symbol, runs fn and stops the subscription
// when fn returns or panics.
func Run(ctx context.Context, symbol string, fn func(ctx context.Context, sub *Subscription) error, opts ...Option) error {
	sub := NewSubscription(symbol, opts...)
	if err := sub.Start(ctx); err != nil {
		return err
	}
	defer sub.Stop()

	return fn(ctx, sub)
}
