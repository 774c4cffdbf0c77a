// Package app assembles the client core: storage, background runner, API
// client, session, planner, conversation and navigation.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/illegalcall/fitplan/internal/apiclient"
	"github.com/illegalcall/fitplan/internal/chat"
	"github.com/illegalcall/fitplan/internal/config"
	"github.com/illegalcall/fitplan/internal/events"
	"github.com/illegalcall/fitplan/internal/nav"
	"github.com/illegalcall/fitplan/internal/onboarding"
	"github.com/illegalcall/fitplan/internal/planner"
	"github.com/illegalcall/fitplan/internal/session"
	"github.com/illegalcall/fitplan/internal/storage"
	"github.com/illegalcall/fitplan/internal/worker"
	"github.com/illegalcall/fitplan/pkg/database"
	"github.com/illegalcall/fitplan/pkg/kafka"
)

// ErrUnknownBackend is returned for a storage backend name New does not know.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Deps overrides what New would otherwise build from the configuration.
// Every field is optional.
type Deps struct {
	HTTPClient *http.Client
	Registerer prometheus.Registerer
	Store      storage.Store
	Producer   sarama.SyncProducer
	// Sink receives every event in addition to the configured sinks.
	Sink events.Sink
}

type App struct {
	Config  *config.Config
	Store   storage.Store
	Sink    events.Sink
	Runner  *worker.Runner
	Client  *apiclient.Client
	Session *session.Store
	Planner *planner.Planner
	Chat    *chat.Conversation
	History *nav.History

	closers []func() error
}

// New builds the application context once. On error every resource opened
// so far is released.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	a := &App{Config: cfg, History: nav.NewHistory(nav.RouteRoot)}

	var err error
	defer func() {
		if err != nil {
			a.closeAll()
		}
	}()

	if a.Store, err = a.openStore(ctx, deps); err != nil {
		return nil, err
	}
	if a.Sink, err = a.openSink(deps); err != nil {
		return nil, err
	}
	// A 401 has already cleared the session; it is not resent.
	a.Runner = worker.NewRunner(cfg.Worker.RetryMax, cfg.Worker.RetryBackoff, a.Sink,
		worker.StopOn(apiclient.ErrUnauthorized))

	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	opts := []apiclient.Option{apiclient.WithMetrics(apiclient.NewMetrics(reg))}
	if deps.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(deps.HTTPClient))
	}
	a.Client = apiclient.New(cfg.Client.APIBaseURL, cfg.Client.RequestTimeout, opts...)

	if a.Session, err = session.New(ctx, a.Client, a.Store, a.Runner); err != nil {
		return nil, err
	}
	a.Client.OnUnauthorized(a.Session.HandleUnauthorized)

	a.Planner = planner.New(a.Client, a.Session, a.Runner, a.Sink)
	a.Chat = chat.New(a.Client, a.Session, a.Planner)

	// Per-user caches go with the session, however it ends.
	a.Session.OnClear(func(context.Context) {
		a.Planner.Reset()
		a.Chat.Reset()
	})
	a.Session.OnUnauthorized(func(context.Context) {
		a.History.Navigate(nav.RouteLogin)
	})

	slog.Info("Application initialized", "storage", cfg.Storage.Backend, "api", cfg.Client.APIBaseURL)
	return a, nil
}

func (a *App) openStore(ctx context.Context, deps Deps) (storage.Store, error) {
	if deps.Store != nil {
		return deps.Store, nil
	}

	switch a.Config.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "", "file":
		return storage.NewFileStore(a.Config.Storage.Dir)
	case "redis":
		rc := a.Config.Redis
		client, err := database.ConnectRedis(ctx, rc.Addr, rc.Password, rc.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return storage.NewRedisStore(client, storage.DefaultRedisPrefix), nil
	case "postgres":
		db, err := database.ConnectPostgres(a.Config.Database.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store := storage.NewPostgresStore(db)
		if err := store.CreateTable(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, a.Config.Storage.Backend)
	}
}

func (a *App) openSink(deps Deps) (events.Sink, error) {
	sinks := []events.Sink{events.NewLogSink(nil)}

	producer := deps.Producer
	if producer == nil && a.Config.Kafka.Broker != "" {
		var err error
		producer, err = kafka.NewProducer(kafka.ProducerConfig{
			Broker:       a.Config.Kafka.Broker,
			RetryMax:     a.Config.Kafka.RetryMax,
			RetryBackoff: a.Config.Kafka.RetryBackoff,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}
		slog.Info("Connected to Kafka", "broker", a.Config.Kafka.Broker)
	}
	if producer != nil {
		ks := events.NewKafkaSink(producer, a.Config.Kafka.Topic)
		a.closers = append(a.closers, ks.Close)
		sinks = append(sinks, ks)
	}
	if deps.Sink != nil {
		sinks = append(sinks, deps.Sink)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return events.Tee(sinks...), nil
}

// NewOnboarding starts a questionnaire bound to the session and planner.
func (a *App) NewOnboarding() *onboarding.Wizard {
	return onboarding.NewWizard(a.Session, a.History, a.Planner)
}

// Resolve follows the gating rules from the current route and returns where
// the user lands.
func (a *App) Resolve() (nav.Route, nav.View) {
	return nav.ResolveFinal(a.History.Current(), a.Session.Snapshot(), a.Session.ProfileLoading())
}

// Logout ends the session and returns to the login page.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Clear(ctx)
	a.History.Navigate(nav.RouteLogin)
	return err
}

// Close waits for background tasks and releases the backends.
func (a *App) Close() error {
	if a.Runner != nil {
		a.Runner.Wait()
	}
	return a.closeAll()
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
