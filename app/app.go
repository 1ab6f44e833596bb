// Package app wires the standalone group-buy server: store, engine,
// plugins, LINE client and the HTTP router.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/announce"
	audithook "github.com/xraph/groupbuy/audit_hook"
	"github.com/xraph/groupbuy/bot"
	"github.com/xraph/groupbuy/config"
	"github.com/xraph/groupbuy/line"
	"github.com/xraph/groupbuy/observability"
	"github.com/xraph/groupbuy/query"
	"github.com/xraph/groupbuy/store"
)

// App is a fully wired server.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	engine  *groupbuy.Engine
	bot     *bot.Bot
	metrics *observability.Collector
	broker  *announce.Broker
	router  *mux.Router

	cancel    context.CancelFunc
	consumers sync.WaitGroup
	closeOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New opens the store, starts the engine and builds the router. Close
// releases everything New acquired.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	client, err := a.lineClient()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = st

	a.metrics = observability.NewCollector(nil)
	if err := a.metrics.Metrics().Start(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("app: start metrics: %w", err)
	}

	engineOpts := []groupbuy.Option{
		groupbuy.WithLogger(a.logger),
		groupbuy.WithPlugin(audithook.New(
			audithook.SlogRecorder{Logger: a.logger},
			audithook.WithLogger(a.logger),
		)),
		groupbuy.WithPlugin(observability.NewMetricsExtension(a.metrics)),
	}

	consumeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	if cfg.Announce.To != "" {
		sink, err := a.announceSink(consumeCtx, client)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		engineOpts = append(engineOpts, groupbuy.WithPlugin(announce.NewPlugin(sink, cfg.Announce.To,
			announce.WithLogger(a.logger),
			announce.WithStatusChanges(cfg.Announce.StatusChanges),
		)))
	}

	a.engine = groupbuy.New(st, engineOpts...)
	if err := a.engine.Start(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("app: start engine: %w", err)
	}

	queries := query.NewService(st,
		query.WithLogger(a.logger),
		query.WithScanLimit(cfg.Bot.ScanLimit),
	)

	a.bot = bot.New(a.engine, queries, client, client,
		bot.WithLogger(a.logger),
		bot.WithCoordinators(cfg.Bot.Coordinators...),
		bot.WithEchoUnrecognized(cfg.Bot.EchoUnrecognized),
		bot.WithConcurrency(cfg.Bot.Concurrency),
	)

	a.router = a.routes()
	return a, nil
}

func (a *App) lineClient() (*line.Client, error) {
	var opts []line.ClientOption
	if a.cfg.LINE.Endpoint != "" {
		opts = append(opts, line.WithEndpoint(a.cfg.LINE.Endpoint))
	}
	client, err := line.NewClient(a.cfg.LINE.ChannelAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: line client: %w", err)
	}
	return client, nil
}

// announceSink pushes directly through LINE, or goes through RabbitMQ when
// an AMQP url is configured. In the brokered case a consumer pushes what
// the publisher queued.
func (a *App) announceSink(ctx context.Context, client *line.Client) (announce.Sink, error) {
	direct := announce.NewDirectSink(client)
	if a.cfg.AMQP.URL == "" {
		return direct, nil
	}

	broker, err := announce.Dial(a.cfg.AMQP.URL, a.cfg.AMQP.Exchange)
	if err != nil {
		return nil, err
	}
	a.broker = broker

	deliveries, err := broker.Subscribe(a.cfg.AMQP.Queue)
	if err != nil {
		return nil, err
	}

	a.consumers.Add(1)
	go func() {
		defer a.consumers.Done()
		if err := announce.Consume(ctx, deliveries, direct, a.logger); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("announcement consumer stopped", "error", err)
		}
	}()

	a.logger.Info("announcements routed through amqp",
		"exchange", a.cfg.AMQP.Exchange,
		"queue", a.cfg.AMQP.Queue,
	)
	return broker.Publisher(), nil
}

func (a *App) routes() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/webhook", line.NewWebhookHandler(a.cfg.LINE.ChannelSecret, a.bot, a.logger)).Methods(http.MethodPost)
	r.HandleFunc("/healthz", a.health).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler of the server.
func (a *App) Handler() http.Handler { return a.router }

// Engine returns the running engine.
func (a *App) Engine() *groupbuy.Engine { return a.engine }

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.Warn("health check failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// Close stops the consumer, the broker, the engine and the store. It is
// safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		if a.broker != nil {
			errs = append(errs, a.broker.Close())
		}
		a.consumers.Wait()

		switch {
		case a.engine != nil:
			errs = append(errs, a.engine.Stop(ctx))
		case a.store != nil:
			errs = append(errs, a.store.Close())
		}

		if a.metrics != nil {
			errs = append(errs, a.metrics.Metrics().Stop(ctx))
		}
	})
	return errors.Join(errs...)
}
