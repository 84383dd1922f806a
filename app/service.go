// Package app wires configuration, graph, dispatch core and transports into
// a runnable service.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apidispatch "github.com/kilianp07/ridedispatch/api/dispatch"
	"github.com/kilianp07/ridedispatch/api/drivers"
	"github.com/kilianp07/ridedispatch/app/plugins"
	"github.com/kilianp07/ridedispatch/config"
	"github.com/kilianp07/ridedispatch/core/dispatch"
	dispatchlog "github.com/kilianp07/ridedispatch/core/dispatch/logging"
	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/fleet"
	"github.com/kilianp07/ridedispatch/core/graph"
	coremetrics "github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/model"
	coremqtt "github.com/kilianp07/ridedispatch/core/mqtt"
	"github.com/kilianp07/ridedispatch/core/resolver"
	"github.com/kilianp07/ridedispatch/infra/graphio"
	"github.com/kilianp07/ridedispatch/infra/logger"
	"github.com/kilianp07/ridedispatch/infra/metrics"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
	"github.com/kilianp07/ridedispatch/internal/eventbus"
)

var registerOnce sync.Once

// Service owns every long-lived component of the dispatcher.
type Service struct {
	cfg         *config.Config
	Graph       *graph.Store
	Resolver    resolver.Resolver
	Coordinator *dispatch.Coordinator
	Tracker     *fleet.Tracker
	Bus         eventbus.EventBus
	Sink        coremetrics.MetricsSink
	Logs        dispatchlog.LogStore

	// Publisher is nil when no broker is configured.
	Publisher coremqtt.Client
	paho      *mqtt.PahoClient
	log       logger.Logger
}

// Option customizes a Service before it connects to external systems.
type Option func(*Service)

// WithPublisher replaces the MQTT client, e.g. with mqtt.MockPublisher in tests.
// Incoming positions must then be fed through HandlePosition.
func WithPublisher(p coremqtt.Client) Option { return func(s *Service) { s.Publisher = p } }

// New builds the service from cfg. The graph is loaded eagerly so that a
// broken input fails before anything starts listening.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log := logger.New("service")

	start := time.Now()
	store, err := graphio.Load(ctx, cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	st := store.Stats()
	log.Infof("graph loaded in %s: %d nodes, %d edges, %d dropped", time.Since(start).Round(time.Millisecond), st.Nodes, st.Edges, st.DroppedEdges)

	res, err := resolver.New(cfg.Resolver, store)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	logs, err := plugins.NewLogStore(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}
	registerOnce.Do(func() { dispatch.MustRegisterMetrics(nil) })

	bus := eventbus.New()
	copts := []dispatch.Option{
		dispatch.WithLogger(logger.New("dispatch")),
		dispatch.WithMetrics(sink),
		dispatch.WithBus(bus),
	}
	if logs != nil {
		copts = append(copts, dispatch.WithLogStore(logs))
	}
	coord, err := dispatch.NewCoordinator(store, res, cfg.Dispatch, copts...)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:         cfg,
		Graph:       store,
		Resolver:    res,
		Coordinator: coord,
		Tracker:     fleet.NewTracker(cfg.Fleet.MaxAge()),
		Bus:         bus,
		Sink:        sink,
		Logs:        logs,
		log:         log,
	}
	for _, o := range opts {
		o(s)
	}
	if s.Publisher == nil && cfg.MQTTEnabled() {
		pc, err := mqtt.NewPahoClient(cfg.MQTT, s.HandlePosition)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.paho, s.Publisher = pc, pc
	}
	return s, nil
}

// HandlePosition stores a driver position and announces it on the bus.
func (s *Service) HandlePosition(d model.Driver) {
	s.Tracker.Update(d)
	s.Bus.Publish(events.PositionEvent{Driver: d})
}

// assigned notifies the driver of a successful dispatch when enabled.
func (s *Service) assigned(req dispatch.Request, res dispatch.Result) {
	a := fleet.Assignment{RequestID: res.RequestID, Timestamp: time.Now()}
	if s.Publisher != nil && s.cfg.Fleet.PublishAssignments {
		id, err := s.Publisher.SendAssignment(coremqtt.Assignment{
			RequestID:   res.RequestID,
			DriverID:    res.Driver.ID,
			Rider:       req.Rider,
			Destination: req.Destination,
			PickupPath:  res.PickupPath,
			TripPath:    res.TripPath,
			PickupTimeS: res.PickupTime,
			TripTimeS:   res.TripTime,
		})
		if err != nil {
			s.log.Errorf("send assignment for %s to %s: %v", res.RequestID, res.Driver.ID, err)
		}
		a.AssignmentID = id
	}
	s.Tracker.RecordAssignment(res.Driver.ID, a)
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/graph", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Graph.Stats())
	})
	mux.Handle("/api/dispatch", &apidispatch.Handler{
		Dispatcher: s.Coordinator,
		Drivers:    s.Tracker,
		Graph:      s.Graph,
		OnAssigned: s.assigned,
		Log:        logger.New("api"),
	})
	if s.Logs != nil {
		mux.Handle("/api/dispatch/logs", apidispatch.NewLogHandler(s.Logs))
	}
	if m, ok := s.Resolver.(resolver.Matcher); ok {
		mux.Handle("/api/nearest", apidispatch.NewNearestHandler(m))
	}
	mux.Handle("/api/ws", apidispatch.NewStreamHandler(s.Bus, logger.New("ws")))
	drivers.NewHandler(s.Tracker, s.Bus).Register(mux)
	return mux
}

// Run serves the HTTP API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	metrics.StartEventCollector(ctx, s.Bus, s.Sink, s.Tracker.Len)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		timeout := time.Duration(s.cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects from the broker and releases the log store and bus.
func (s *Service) Close() error {
	if s.paho != nil {
		s.paho.Disconnect()
	}
	s.Bus.Close()
	if c, ok := s.Sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.Logs != nil {
		return s.Logs.Close()
	}
	return nil
}
