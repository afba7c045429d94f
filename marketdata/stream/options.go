package stream

import (
	"context"
	"net/url"
	"time"

	"github.com/stockpulse/stockpulse-go/common"
)

// Option is a configuration option for a Subscription or a Manager
type Option interface {
	apply(*options)
}

type options struct {
	logger         Logger
	baseURL        string
	token          string
	encoding       Encoding
	reconnectLimit int
	reconnectDelay time.Duration
	connectTimeout time.Duration
	bufferSize     int
	tradeHandler   func(Trade)
	stateHandler   func(Status)

	// for testing only
	connCreator func(ctx context.Context, u url.URL, enc Encoding) (conn, error)
}

type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithLogger configures the logger
func WithLogger(logger Logger) Option {
	return newFuncOption(func(o *options) {
		o.logger = logger
	})
}

// WithBaseURL configures the base URL
func WithBaseURL(url string) Option {
	return newFuncOption(func(o *options) {
		o.baseURL = url
	})
}

// WithToken configures the API token sent in the token query parameter
func WithToken(token string) Option {
	return newFuncOption(func(o *options) {
		if token != "" {
			o.token = token
		}
	})
}

// WithEncoding configures the wire format of the stream messages
func WithEncoding(enc Encoding) Option {
	return newFuncOption(func(o *options) {
		o.encoding = enc
	})
}

// WithReconnectSettings configures how many consecutive connection
// errors should be accepted and the delay (that is multiplied by the number of consecutive errors)
// between retries. limit = 0 means the subscription will try reconnecting indefinitely.
func WithReconnectSettings(limit int, delay time.Duration) Option {
	return newFuncOption(func(o *options) {
		o.reconnectLimit = limit
		o.reconnectDelay = delay
	})
}

// WithConnectTimeout bounds how long a single connection attempt may take
func WithConnectTimeout(timeout time.Duration) Option {
	return newFuncOption(func(o *options) {
		o.connectTimeout = timeout
	})
}

// WithBufferSize sets the size for the buffer that is used for messages received
// from the server
func WithBufferSize(size int) Option {
	return newFuncOption(func(o *options) {
		o.bufferSize = size
	})
}

// WithTradeHandler runs the handler for every trade applied to the subscription.
// The handler runs on the event goroutine, so it should return quickly.
func WithTradeHandler(handler func(Trade)) Option {
	return newFuncOption(func(o *options) {
		o.tradeHandler = handler
	})
}

// WithStateHandler runs the handler after every state transition
func WithStateHandler(handler func(Status)) Option {
	return newFuncOption(func(o *options) {
		o.stateHandler = handler
	})
}

func withConnCreator(connCreator func(ctx context.Context, u url.URL, enc Encoding) (conn, error)) Option {
	return newFuncOption(func(o *options) {
		o.connCreator = connCreator
	})
}

// defaultOptions are the default options for a subscription.
// Don't change this in a backward incompatible way!
func defaultOptions() *options {
	return &options{
		logger:         DefaultLogger(),
		baseURL:        common.StreamBaseURL(),
		token:          common.Credentials().Token,
		encoding:       EncodingJSON,
		reconnectLimit: 20,
		reconnectDelay: 150 * time.Millisecond,
		connectTimeout: 10 * time.Second,
		bufferSize:     1000,
		tradeHandler:   func(Trade) {},
		stateHandler:   func(Status) {},
		connCreator:    newNhooyrWebsocketConn,
	}
}

func (o *options) applyAll(opts []Option) {
	for _, opt := range opts {
		opt.apply(o)
	}
	if o.tradeHandler == nil {
		o.tradeHandler = func(Trade) {}
	}
	if o.stateHandler == nil {
		o.stateHandler = func(Status) {}
	}
	if o.logger == nil {
		o.logger = DefaultLogger()
	}
}
