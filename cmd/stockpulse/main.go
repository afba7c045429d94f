package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stockpulse/stockpulse-go/internal/config"
	"github.com/stockpulse/stockpulse-go/internal/logging"
	"github.com/stockpulse/stockpulse-go/internal/trace"
	"github.com/stockpulse/stockpulse-go/internal/watchlist"
	"github.com/stockpulse/stockpulse-go/marketdata"
	"github.com/stockpulse/stockpulse-go/marketdata/stream"
)

var version = "dev"

const usage = `usage: stockpulse [-config FILE] COMMAND

commands:
  quotes          refresh the watchlist once and print it
  watch           refresh the watchlist periodically and stream live prices until interrupted
  detail SYMBOL   print the candle analysis and recent patterns of SYMBOL
  live SYMBOL     stream live trades of SYMBOL until interrupted
`

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path of the YAML config file")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "stockpulse:", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := trace.Init(trace.Options{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
	}); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(ctx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger, os.Stdout)
	switch cmd := args[0]; cmd {
	case "quotes":
		return a.quotes(ctx)
	case "watch":
		return a.watch(ctx)
	case "detail":
		if len(args) != 2 {
			return errors.New("usage: stockpulse detail SYMBOL")
		}
		return a.detail(ctx, args[1])
	case "live":
		if len(args) != 2 {
			return errors.New("usage: stockpulse live SYMBOL")
		}
		return a.live(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer
	client     *marketdata.Client
	indicators marketdata.TechnicalIndicators
}

func newApp(cfg *config.Config, logger *zap.Logger, out io.Writer) *app {
	client := marketdata.NewClient(marketdata.ClientOpts{
		Token:   cfg.API.Token,
		BaseURL: cfg.API.RESTBaseURL,
		Timeout: cfg.API.Timeout,
	})
	return &app{
		cfg:        cfg,
		logger:     logger,
		out:        out,
		client:     client,
		indicators: marketdata.NewIndicators(marketdata.IndicatorsOpts{Client: client}),
	}
}

func (a *app) watchlist() *watchlist.Watchlist {
	return watchlist.New(watchlist.Options{
		Symbols:  a.cfg.Watchlist.Symbols,
		Names:    a.cfg.Watchlist.Names,
		Policy:   marketdata.BatchPolicy{Concurrency: a.cfg.Watchlist.Concurrency},
		Quotes:   a.client,
		Profiles: a.client,
		Logger:   a.logger.Named("watchlist"),
	})
}

func (a *app) streamOptions(extra ...stream.Option) []stream.Option {
	enc := stream.EncodingJSON
	if a.cfg.Stream.Encoding == "msgpack" {
		enc = stream.EncodingMsgpack
	}
	opts := []stream.Option{
		stream.WithBaseURL(a.cfg.API.StreamBaseURL),
		stream.WithToken(a.cfg.API.Token),
		stream.WithEncoding(enc),
		stream.WithReconnectSettings(a.cfg.Stream.ReconnectLimit, a.cfg.Stream.ReconnectDelay),
		stream.WithConnectTimeout(a.cfg.Stream.ConnectTimeout),
		stream.WithLogger(a.logger.Named("stream").Sugar()),
	}
	return append(opts, extra...)
}

func (a *app) quotes(ctx context.Context) error {
	snap := a.watchlist().Refresh(ctx)
	return printSnapshot(a.out, snap)
}

func (a *app) watch(ctx context.Context) error {
	wl := a.watchlist()
	var outMu sync.Mutex
	scheduler, err := watchlist.NewScheduler(ctx, wl, a.cfg.Watchlist.RefreshCron, func(snap watchlist.Snapshot) {
		outMu.Lock()
		defer outMu.Unlock()
		if err := printSnapshot(a.out, snap); err != nil {
			a.logger.Error("print watchlist", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	scheduler.RunNow()
	scheduler.Start()
	defer scheduler.Stop()

	subs := make([]*stream.Subscription, 0, len(wl.Symbols()))
	defer func() {
		for _, sub := range subs {
			sub.Stop()
		}
	}()
	for _, symbol := range wl.Symbols() {
		sub := stream.NewSubscription(symbol, a.streamOptions(
			stream.WithTradeHandler(func(t stream.Trade) {
				outMu.Lock()
				defer outMu.Unlock()
				printTrade(a.out, t)
			}),
			stream.WithStateHandler(a.logState),
		)...)
		if err := sub.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", symbol, err)
		}
		subs = append(subs, sub)
	}

	<-ctx.Done()
	a.logger.Info("shutting down")
	return nil
}

func (a *app) detail(ctx context.Context, symbol string) error {
	ctx, span := trace.StartSpan(ctx, "detail.load")
	defer span.End()
	span.SetAttributes(trace.Symbol(symbol))

	analysis, err := a.indicators.Analyze(ctx, symbol, marketdata.AnalysisParams{
		LookbackDays:        a.cfg.Detail.LookbackDays,
		MovingAverageWindow: a.cfg.Detail.MovingAverageWindow,
	})
	if err != nil {
		trace.RecordError(span, err)
		return fmt.Errorf("load %s: %w", symbol, err)
	}

	name := symbol
	if n, ok := a.cfg.Watchlist.Names[symbol]; ok {
		name = n
	} else if p, err := a.client.GetProfile(ctx, symbol); err == nil {
		name = p.Name
	} else {
		a.logger.Debug("profile lookup failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return printAnalysis(a.out, name, analysis)
}

func (a *app) live(ctx context.Context, symbol string) error {
	opts := a.streamOptions(
		stream.WithTradeHandler(func(t stream.Trade) { printTrade(a.out, t) }),
		stream.WithStateHandler(a.logState),
	)
	return stream.Run(ctx, symbol, func(ctx context.Context, sub *stream.Subscription) error {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Terminated():
			return err
		}
	}, opts...)
}

func (a *app) logState(st stream.Status) {
	fields := []zap.Field{
		zap.String("symbol", st.Symbol),
		zap.String("id", st.ID),
		zap.Stringer("state", st.State),
	}
	if st.State == stream.Disconnected {
		fields = append(fields, zap.Stringer("reason", st.Reason), zap.Error(st.Err))
		a.logger.Warn("stream state changed", fields...)
		return
	}
	a.logger.Info("stream state changed", fields...)
}
