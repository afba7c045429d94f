package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	errClose        = errors.New("closed")
	errPingDisabled = errors.New("ping disabled")
)

type mockConn struct {
	pingCh       chan struct{}
	closeCh      chan struct{}
	closeOnce    sync.Once
	readCh       chan []byte
	readErrCh    chan error
	writeCh      chan []byte
	pingDisabled bool
}

var _ conn = (*mockConn)(nil)

func newMockConn() *mockConn {
	return &mockConn{
		pingCh:    make(chan struct{}, 10),
		closeCh:   make(chan struct{}),
		readCh:    make(chan []byte, 10),
		readErrCh: make(chan error, 1),
		writeCh:   make(chan []byte, 10),
	}
}

func (c *mockConn) close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})
	return nil
}

func (c *mockConn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// peerClose makes the pending read fail as if the server closed the connection
func (c *mockConn) peerClose() {
	c.readErrCh <- fmt.Errorf("%w: status = StatusGoingAway", errPeerClosed)
}

func (c *mockConn) ping(_ context.Context) error {
	if c.pingDisabled {
		return errPingDisabled
	}
	select {
	case <-c.closeCh:
		return errClose
	default:
	}
	c.pingCh <- struct{}{}
	return nil
}

func (c *mockConn) readMessage(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data := <-c.readCh:
		return data, nil
	case err := <-c.readErrCh:
		return nil, err
	case <-c.closeCh:
		return nil, errClose
	}
}

func (c *mockConn) writeMessage(_ context.Context, data []byte) error {
	select {
	case <-c.closeCh:
		return errClose
	default:
	}
	c.writeCh <- data
	return nil
}

type testTicker struct {
	ch chan time.Time
}

var _ ticker = (*testTicker)(nil)

func newTestTicker() *testTicker {
	return &testTicker{ch: make(chan time.Time)}
}

func (t *testTicker) C() <-chan time.Time {
	return t.ch
}

func (t *testTicker) Stop() {}

// Tick blocks until the pinger receives the tick
func (t *testTicker) Tick() {
	t.ch <- time.Now()
}
