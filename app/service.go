package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	fleetapi "github.com/corner-25/test-umc-sub000/api/fleet"
	"github.com/corner-25/test-umc-sub000/api/session"
	"github.com/corner-25/test-umc-sub000/auth"
	"github.com/corner-25/test-umc-sub000/config"
	"github.com/corner-25/test-umc-sub000/core/alerts"
	"github.com/corner-25/test-umc-sub000/core/audit"
	"github.com/corner-25/test-umc-sub000/core/events"
	"github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/ingest"
	coremetrics "github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	"github.com/corner-25/test-umc-sub000/infra/logger"
	"github.com/corner-25/test-umc-sub000/infra/metrics"
	"github.com/corner-25/test-umc-sub000/infra/mqtt"
	"github.com/corner-25/test-umc-sub000/infra/store"
	"github.com/corner-25/test-umc-sub000/internal/eventbus"
)

// busBuffer is the per-subscriber queue of ingest events.
const busBuffer = 16

// Service wires the trip store, the import pipeline, metrics, alerts and the
// dashboard API.
type Service struct {
	Config   *config.Config
	Store    tripstore.Store
	Audit    audit.Store
	Catalog  *fleet.Catalog
	Sink     coremetrics.Sink
	Pipeline *ingest.Pipeline
	// Sources are the remote exports listed under ingest.sources.
	Sources []ingest.Source

	bus     *eventbus.TypedBus[events.IngestEvent]
	alerter *alerts.Alerter
	mqtt    *mqtt.Client
	log     logger.Logger
}

// New creates a Service from the configuration. It opens the stores but
// starts nothing; see Run.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	s := &Service{Config: cfg, log: logg}
	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	var err error
	if s.Store, err = OpenStore(cfg.Store); err != nil {
		return nil, fmt.Errorf("trip store: %w", err)
	}
	if s.Audit, err = openAudit(cfg.Audit); err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	if s.Catalog, err = LoadCatalog(cfg.Fleet); err != nil {
		return nil, err
	}
	if s.Sink, err = coremetrics.NewSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	s.bus = eventbus.NewTyped[events.IngestEvent](busBuffer)
	s.Pipeline = ingest.NewPipeline(cfg.Ingest.NewParser(), s.Store,
		ingest.WithAudit(s.Audit),
		ingest.WithBus(s.bus),
		ingest.WithSink(s.Sink),
		ingest.WithLogger(logger.New("ingest")),
	)

	var notifier alerts.Notifier = alerts.NopNotifier{}
	if cfg.MQTT.Enabled {
		if s.mqtt, err = mqtt.NewClient(cfg.MQTT); err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		notifier = mqtt.NewAlertNotifier(s.mqtt)
	}
	s.alerter = alerts.New(s.Store, cfg.Fleet,
		alerts.WithNotifier(notifier),
		alerts.WithSink(s.Sink),
		alerts.WithLogger(logger.New("alerts")),
	)

	for _, sc := range cfg.Ingest.Sources {
		src, err := ingest.Sources.Create(sc)
		if err != nil {
			return nil, fmt.Errorf("ingest source %s: %w", sc.Type, err)
		}
		s.Sources = append(s.Sources, src)
	}
	ok = true
	return s, nil
}

// SourceResult is the outcome of importing one configured source.
type SourceResult struct {
	Source string
	Batch  model.Batch
	Err    error
}

// ImportSources runs the pipeline over every configured source in order. A
// failing source is logged and does not stop the others.
func (s *Service) ImportSources(ctx context.Context) ([]SourceResult, error) {
	out := make([]SourceResult, 0, len(s.Sources))
	for _, src := range s.Sources {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		b, err := s.Pipeline.Run(ctx, src)
		if err != nil {
			s.log.Warnf("import %s: %v", src.Name(), err)
		}
		out = append(out, SourceResult{Source: src.Name(), Batch: b, Err: err})
	}
	return out, nil
}

// OpenStore opens the configured trip store.
func OpenStore(cfg config.StoreConfig) (tripstore.Store, error) {
	switch cfg.Driver {
	case "memory":
		return tripstore.NewMemoryStore(), nil
	case "sqlite":
		st, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown driver %s", cfg.Driver)
}

func openAudit(cfg config.AuditConfig) (audit.Store, error) {
	if cfg.Backend == "memory" {
		return audit.NewMemoryStore(), nil
	}
	st, err := audit.NewRotatingJSONLStore(cfg.Rotating())
	if err != nil {
		return nil, err
	}
	return st, nil
}

// LoadCatalog merges the standards file with the vehicles listed inline;
// inline entries win.
func LoadCatalog(cfg fleet.Config) (*fleet.Catalog, error) {
	var fromFile []model.Vehicle
	if cfg.StandardsFile != "" {
		var err error
		if fromFile, err = fleet.LoadStandards(cfg.StandardsFile); err != nil {
			return nil, err
		}
	}
	return fleet.NewCatalog(fromFile, cfg.Vehicles), nil
}

// Handler builds the dashboard mux. Every API route requires a session.
func (s *Service) Handler() (http.Handler, error) {
	if !s.Config.Auth.Enabled() {
		return nil, errors.New("auth.users is required to serve the dashboard")
	}
	users, err := auth.NewUsers(s.Config.Auth.Users)
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewSessions(s.Config.Auth.Secret, s.Config.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}
	httpMetrics, err := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/login", httpMetrics.Wrap("POST /api/login",
		session.NewLoginHandler(users, sessions, s.Config.Auth.SecureCookie)))
	mux.Handle("POST /api/logout", httpMetrics.Wrap("POST /api/logout", session.NewLogoutHandler(s.Config.Auth.SecureCookie)))

	h := fleetapi.NewHandler(fleetapi.Deps{
		Store:     s.Store,
		Catalog:   s.Catalog,
		Config:    s.Config.Fleet,
		Pipeline:  s.Pipeline,
		Audit:     s.Audit,
		MaxUpload: int64(s.Config.Server.MaxUploadMB) << 20,
		Log:       logger.New("api"),
	})
	h.Register(mux, session.Require(sessions), session.RequireAdmin, httpMetrics.Wrap)
	return mux, nil
}

// Run starts the background workers and the HTTP server, and blocks until
// ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.Start(ctx)

	srv := &http.Server{
		Addr:              s.Config.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.Config.Server.ReadTimeout,
		WriteTimeout:      s.Config.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("dashboard listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Start launches the event consumers and the Prometheus listener. They stop
// with ctx.
func (s *Service) Start(ctx context.Context) {
	metrics.StartEventCollector(ctx, s.bus, metrics.Collector{
		Sink:    s.Sink,
		Store:   s.Store,
		Catalog: s.Catalog,
		Config:  s.Config.Fleet,
		Log:     logger.New("metrics"),
	})
	go s.alerter.Run(ctx, s.bus.Subscribe())
	if addr := s.Config.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Close()
	}
	closeSink(s.Sink)
	var errs []error
	if s.Audit != nil {
		errs = append(errs, s.Audit.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	return errors.Join(errs...)
}

func closeSink(sink coremetrics.Sink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, s := range v.Sinks {
			closeSink(s)
		}
	case interface{ Close() }:
		v.Close()
	}
}
