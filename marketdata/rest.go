package marketdata

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/stockpulse/stockpulse-go/common"
)

// ClientOpts contains options for the marketdata client.
type ClientOpts struct {
	// Token is the static API token. If empty, common.Credentials() is used.
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client is the marketdata REST client.
type Client struct {
	opts       ClientOpts
	httpClient *http.Client

	do func(c *Client, req *http.Request) (*http.Response, error)
}

// NewClient creates a new marketdata client using the given opts.
func NewClient(opts ClientOpts) *Client {
	if opts.Token == "" {
		opts.Token = common.Credentials().Token
	}
	if opts.BaseURL == "" {
		opts.BaseURL = common.RESTBaseURL()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		do: defaultDo,
	}
}

// DefaultClient uses options from environment variables, or the defaults.
var DefaultClient = NewClient(ClientOpts{})

func defaultDo(c *Client, req *http.Request) (*http.Response, error) {
	if c.opts.Token != "" {
		req.Header.Set("X-Finnhub-Token", c.opts.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if err = verify(resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// GetQuote returns the current quote of the given symbol.
//
// It fails with an *HTTPError if the server does not respond with a success
// status and with ErrNoData if the response does not carry a tradable price.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	u, err := url.Parse(fmt.Sprintf("%s/quote", c.opts.BaseURL))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("symbol", symbol)
	u.RawQuery = q.Encode()

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var quoteResp quoteResponse
	if err = unmarshal(resp, &quoteResp); err != nil {
		return nil, err
	}
	if quoteResp.Price == nil || *quoteResp.Price == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	quote := &Quote{
		Symbol: symbol,
		Price:  *quoteResp.Price,
	}
	if quoteResp.Change != nil {
		quote.Change = *quoteResp.Change
	}
	if quoteResp.PercentChange != nil {
		quote.PercentChange = *quoteResp.PercentChange
	}
	return quote, nil
}

// BatchPolicy controls how GetQuotes schedules its requests.
type BatchPolicy struct {
	// Concurrency is the maximum number of requests in flight.
	// Values below 2 mean strictly sequential fetching.
	Concurrency int
}

// Sequential fetches one symbol at a time, starting the next request only
// after the previous one has settled.
var Sequential = BatchPolicy{Concurrency: 1}

// GetQuotes returns the quotes of the given symbols in the same order.
//
// A failing symbol never aborts the batch: its Quote carries the error in Err
// and the remaining symbols are still fetched.
func (c *Client) GetQuotes(ctx context.Context, symbols []string, policy BatchPolicy) []Quote {
	quotes := make([]Quote, len(symbols))
	fetch := func(i int) {
		quote, err := c.GetQuote(ctx, symbols[i])
		if err != nil {
			quotes[i] = Quote{Symbol: symbols[i], Err: err}
			return
		}
		quotes[i] = *quote
	}

	if policy.Concurrency < 2 {
		for i := range symbols {
			fetch(i)
		}
		return quotes
	}

	pending := make(chan int, len(symbols))
	for i := range symbols {
		pending <- i
	}
	close(pending)

	workers := policy.Concurrency
	if workers > len(symbols) {
		workers = len(symbols)
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range pending {
				fetch(i)
			}
		}()
	}
	wg.Wait()
	return quotes
}

// GetCandlesRequest contains the parameters for getting a candle series.
type GetCandlesRequest struct {
	// Resolution is the candle size, e.g. "D" for daily candles.
	// Defaults to daily.
	Resolution Resolution
	// From is the inclusive beginning of the interval
	From time.Time
	// To is the inclusive end of the interval
	To time.Time
}

// GetCandles returns the normalized candle series of the given symbol.
func (c *Client) GetCandles(ctx context.Context, symbol string, req GetCandlesRequest) ([]Candle, error) {
	series, err := c.GetCandleSeries(ctx, symbol, req)
	if err != nil {
		return nil, err
	}
	candles, err := NormalizeCandles(*series)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return candles, nil
}

// GetCandleSeries returns the raw candle series of the given symbol as sent by
// the server. Use NormalizeCandles to turn it into candles.
func (c *Client) GetCandleSeries(ctx context.Context, symbol string, req GetCandlesRequest) (*CandleSeries, error) {
	u, err := url.Parse(fmt.Sprintf("%s/stock/candle", c.opts.BaseURL))
	if err != nil {
		return nil, err
	}

	if req.Resolution == "" {
		req.Resolution = Daily
	}
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("resolution", string(req.Resolution))
	q.Set("from", strconv.FormatInt(req.From.Unix(), 10))
	q.Set("to", strconv.FormatInt(req.To.Unix(), 10))
	u.RawQuery = q.Encode()

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var series CandleSeries
	if err = unmarshal(resp, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// GetProfile returns the company profile of the given symbol.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	u, err := url.Parse(fmt.Sprintf("%s/stock/profile2", c.opts.BaseURL))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("symbol", symbol)
	u.RawQuery = q.Encode()

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err = unmarshal(resp, &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return &profile, nil
}

// GetQuote returns the current quote of the given symbol.
func GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	return DefaultClient.GetQuote(ctx, symbol)
}

// GetQuotes returns the quotes of the given symbols in the same order.
func GetQuotes(ctx context.Context, symbols []string, policy BatchPolicy) []Quote {
	return DefaultClient.GetQuotes(ctx, symbols, policy)
}

// GetCandles returns the normalized candle series of the given symbol.
func GetCandles(ctx context.Context, symbol string, req GetCandlesRequest) ([]Candle, error) {
	return DefaultClient.GetCandles(ctx, symbol, req)
}

// GetProfile returns the company profile of the given symbol.
func GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	return DefaultClient.GetProfile(ctx, symbol)
}

func (c *Client) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "gzip")

	return c.do(c, req)
}

func verify(resp *http.Response) error {
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		httpErr := &HTTPError{StatusCode: resp.StatusCode}
		var apiErr struct {
			Error string `json:"error"`
		}
		if err = json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			httpErr.Message = apiErr.Error
		} else {
			httpErr.Message = string(body)
		}
		return httpErr
	}
	return nil
}

func unmarshal(resp *http.Response, data interface{}) error {
	defer resp.Body.Close()
	var (
		reader io.ReadCloser
		err    error
	)
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer reader.Close()
	default:
		reader = resp.Body
	}
	return json.NewDecoder(reader).Decode(data)
}
