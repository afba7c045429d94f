package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stockpulse/stockpulse-go/internal/ctxtime"
)

// Subscription is a live trade subscription for a single symbol. It owns one
// connection at a time and reconnects it until stopped.
//
// State transitions and trade application only happen on the subscription's
// event goroutine. Status, State and LatestPrice can be called from anywhere.
type Subscription struct {
	id     string
	symbol string
	options

	mu      sync.RWMutex
	status  Status
	started bool
	stopped bool
	cancel  context.CancelFunc

	finishOnce     sync.Once
	done           chan struct{}
	terminatedChan chan error
}

// NewSubscription creates a subscription for symbol. It does not connect until Start is called.
func NewSubscription(symbol string, opts ...Option) *Subscription {
	o := defaultOptions()
	o.applyAll(opts)

	id := ulid.Make().String()
	return &Subscription{
		id:      id,
		symbol:  symbol,
		options: *o,
		status: Status{
			ID:     id,
			Symbol: symbol,
			State:  Idle,
		},
		done:           make(chan struct{}),
		terminatedChan: make(chan error, 1),
	}
}

// ID returns the unique identifier of the subscription
func (s *Subscription) ID() string {
	return s.id
}

// Symbol returns the subscribed symbol
func (s *Subscription) Symbol() string {
	return s.symbol
}

// Status returns a snapshot of the subscription's status
func (s *Subscription) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// State returns the current state of the subscription
func (s *Subscription) State() State {
	return s.Status().State
}

// LatestPrice returns the price of the most recent trade and whether
// any trade has been received yet
func (s *Subscription) LatestPrice() (float64, bool) {
	st := s.Status()
	return st.LatestPrice, st.HasPrice
}

// Start starts connecting in the background and returns immediately. The
// subscription is torn down when ctx is cancelled or Stop is called.
func (s *Subscription) Start(ctx context.Context) error {
	if strings.TrimSpace(s.symbol) == "" {
		return ErrEmptySymbol
	}
	u, err := s.constructURL()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSubscriptionStopped
	}
	if s.started {
		return ErrStartCalledMultipleTimes
	}
	s.started = true
	s.status.State = Connecting

	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx, u)
	return nil
}

// Stop tears the subscription down and waits until its connection is closed.
// If the subscription is subscribed, an unsubscribe directive is sent first.
// Stop is idempotent and must not be called from a trade or state handler.
func (s *Subscription) Stop() {
	s.mu.Lock()
	s.stopped = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if !started {
		s.finish(nil)
		return
	}
	cancel()
	<-s.done
}

// Terminated returns a channel that the subscription sends an error to
// when it terminates. The error is nil if it was stopped, otherwise it
// is the reason why reconnecting was given up. The channel is closed afterwards.
func (s *Subscription) Terminated() <-chan error {
	return s.terminatedChan
}

func (s *Subscription) constructURL() (url.URL, error) {
	scheme := "wss"
	baseURL := s.baseURL
	switch {
	case strings.HasPrefix(baseURL, "http://"):
		scheme = "ws"
	case strings.HasPrefix(baseURL, "ws://"):
		scheme = "ws"
	}

	ub, err := url.Parse(baseURL)
	if err != nil {
		return url.URL{}, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	ub.Scheme = scheme
	q := ub.Query()
	if s.token != "" {
		q.Set("token", s.token)
	}
	ub.RawQuery = q.Encode()
	return *ub, nil
}

// run connects to u, subscribes and serves the connection. It reconnects as
// long as reconnectLimit consecutive connection errors don't occur.
func (s *Subscription) run(ctx context.Context, u url.URL) {
	var connError error
	failedAttemptsInARow := 0

	for {
		if ctx.Err() != nil {
			s.finish(nil)
			return
		}
		if s.reconnectLimit != 0 && failedAttemptsInARow >= s.reconnectLimit {
			s.logger.Errorf("stream: %s: max reconnect limit has been reached, last error: %v", s.symbol, connError)
			s.finish(fmt.Errorf("max reconnect limit has been reached, last error: %w", connError))
			return
		}
		if err := ctxtime.Sleep(ctx, time.Duration(failedAttemptsInARow)*s.reconnectDelay); err != nil {
			s.finish(nil)
			return
		}
		failedAttemptsInARow++

		s.setState(Connecting, ReasonNone, nil)
		s.logger.Infof("stream: %s: connecting, attempt %d/%d ...", s.symbol, failedAttemptsInARow, s.reconnectLimit)
		c, reason, err := s.connect(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				s.finish(nil)
				return
			}
			connError = err
			s.logger.Warnf("stream: %s: failed to connect, error: %v", s.symbol, err)
			s.setState(Disconnected, reason, err)
			continue
		}

		if err := s.write(ctx, c, directiveSubscribe); err != nil {
			c.close()
			if ctx.Err() != nil {
				s.finish(nil)
				return
			}
			connError = err
			s.logger.Warnf("stream: %s: failed to subscribe, error: %v", s.symbol, err)
			s.setState(Disconnected, ReasonTransportError, err)
			continue
		}
		failedAttemptsInARow = 0
		connError = nil
		s.setState(Subscribed, ReasonNone, nil)
		s.logger.Infof("stream: %s: subscribed", s.symbol)

		err = s.serve(ctx, c)
		if ctx.Err() != nil {
			s.logger.Infof("stream: %s: disconnected", s.symbol)
			s.finish(nil)
			return
		}
		connError = err
		reason = ReasonTransportError
		if errors.Is(err, errPeerClosed) {
			reason = ReasonClosed
		}
		s.logger.Warnf("stream: %s: connection lost, error: %v", s.symbol, err)
		s.setState(Disconnected, reason, err)
	}
}

type connResult struct {
	conn conn
	err  error
}

// connect creates a connection bounded by the connect timeout. A connection
// that opens after ctx got cancelled or the timeout elapsed is closed
// without anything being written to it.
func (s *Subscription) connect(ctx context.Context, u url.URL) (conn, Reason, error) {
	dialCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.connectTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, s.connectTimeout)
	}
	defer cancel()

	resCh := make(chan connResult, 1)
	go func() {
		c, err := s.connCreator(dialCtx, u, s.encoding)
		resCh <- connResult{conn: c, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			if ctx.Err() == nil && errors.Is(res.err, context.DeadlineExceeded) {
				return nil, ReasonTimeout, fmt.Errorf("%w: %v", ErrConnectTimeout, res.err)
			}
			return nil, ReasonTransportError, res.err
		}
		if ctx.Err() != nil {
			res.conn.close()
			return nil, ReasonNone, ctx.Err()
		}
		return res.conn, ReasonNone, nil
	case <-dialCtx.Done():
		go closeLateConn(resCh)
		if ctx.Err() != nil {
			return nil, ReasonNone, ctx.Err()
		}
		return nil, ReasonTimeout, ErrConnectTimeout
	}
}

func closeLateConn(resCh <-chan connResult) {
	res := <-resCh
	if res.conn != nil {
		res.conn.close()
	}
}

func (s *Subscription) write(ctx context.Context, c conn, directive string) error {
	msg, err := s.encoding.encodeDirective(directive, s.symbol)
	if err != nil {
		return fmt.Errorf("encode %s: %w", directive, err)
	}
	return c.writeMessage(ctx, msg)
}

// serve processes the messages of c until the connection fails or ctx is
// cancelled. On cancellation it sends a best-effort unsubscribe. The connection
// is always closed when serve returns.
func (s *Subscription) serve(ctx context.Context, c conn) error {
	// Reads are not bound to ctx: cancelling a read would close the
	// connection before the unsubscribe could be written.
	connCtx, cancelConn := context.WithCancel(context.Background())
	in := make(chan []byte, s.bufferSize)
	readErr := make(chan error, 1)
	pingErr := make(chan error, 1)

	wg := sync.WaitGroup{}
	wg.Add(2)
	go s.connReader(connCtx, &wg, c, in, readErr)
	go s.connPinger(connCtx, &wg, c, pingErr)
	defer func() {
		c.close()
		cancelConn()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			if err := s.write(context.Background(), c, directiveUnsubscribe); err != nil {
				s.logger.Warnf("stream: %s: failed to unsubscribe, error: %v", s.symbol, err)
			}
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return <-readErr
			}
			s.handleMessage(msg)
		case err := <-pingErr:
			return fmt.Errorf("ping failed: %w", err)
		}
	}
}

// connReader reads from c and sends the messages to in. It closes in after
// sending the read error to readErr.
func (s *Subscription) connReader(
	ctx context.Context,
	wg *sync.WaitGroup,
	c conn,
	in chan<- []byte,
	readErr chan<- error,
) {
	defer func() {
		close(in)
		wg.Done()
	}()

	for {
		msg, err := c.readMessage(ctx)
		if err != nil {
			readErr <- err
			return
		}
		select {
		case in <- msg:
		case <-ctx.Done():
			readErr <- ctx.Err()
			return
		}
	}
}

// connPinger periodically pings c to ensure the connection is still alive
func (s *Subscription) connPinger(ctx context.Context, wg *sync.WaitGroup, c conn, pingErr chan<- error) {
	pingTicker := newPingTicker()
	defer func() {
		pingTicker.Stop()
		wg.Done()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C():
			if err := c.ping(ctx); err != nil {
				if ctx.Err() == nil {
					pingErr <- err
				}
				return
			}
		}
	}
}

func (s *Subscription) handleMessage(msg []byte) {
	ev, err := s.encoding.decodeEvent(msg)
	if err != nil {
		s.logger.Warnf("stream: %s: could not decode message: %v", s.symbol, err)
		return
	}

	switch ev.Type {
	case msgTypeTrade:
		if len(ev.Trades) == 0 {
			return
		}
		t := ev.Trades[0]
		if t.Symbol == "" {
			t.Symbol = s.symbol
		}
		if t.Symbol != s.symbol {
			return
		}
		s.mu.Lock()
		s.status.LatestPrice = t.Price
		s.status.HasPrice = true
		s.mu.Unlock()
		s.tradeHandler(t)
	case msgTypeError:
		s.logger.Errorf("stream: %s: server error: %s", s.symbol, ev.Msg)
	case msgTypePing:
	default:
	}
}

// setState records a transition and notifies the state handler. Reason
// and Err are only replaced when entering Disconnected.
func (s *Subscription) setState(state State, reason Reason, err error) {
	s.mu.Lock()
	s.status.State = state
	switch state {
	case Disconnected:
		s.status.Reason = reason
		s.status.Err = err
	case Connecting, Subscribed:
		s.status.Reason = ReasonNone
	}
	st := s.status
	s.mu.Unlock()

	s.stateHandler(st)
}

// finish moves the subscription to Terminated, reports err on the
// terminated channel and releases Stop.
func (s *Subscription) finish(err error) {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.status.State = Terminated
		if err != nil {
			s.status.Err = err
		}
		st := s.status
		s.mu.Unlock()

		s.stateHandler(st)
		s.terminatedChan <- err
		close(s.terminatedChan)
		close(s.done)
	})
}
