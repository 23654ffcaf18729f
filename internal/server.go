package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/smartnotes/internal/config"
	"github.com/2beens/smartnotes/internal/db"
	"github.com/2beens/smartnotes/internal/middleware"
	"github.com/2beens/smartnotes/internal/notes"
	notesBox "github.com/2beens/smartnotes/internal/notes_box"
	"github.com/2beens/smartnotes/internal/storage"
	"github.com/2beens/smartnotes/internal/telemetry/metrics"
	"github.com/2beens/smartnotes/internal/telemetry/tracing"
	"github.com/2beens/smartnotes/pkg"
)

// form posts are tiny, anything bigger is rejected while parsing
const maxRequestBodyBytes = 1 << 20

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	storage     storage.Adapter
	notesStore  *notes.Store
	location    *time.Location

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		location:    location,
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	s.otelShutdown, err = tracing.HoneycombSetup(params.HoneycombTracingEnabled, "smartnotes")
	if err != nil {
		return nil, err
	}

	var extraCollectors []prometheus.Collector
	backend := strings.ToLower(cfg.StorageBackend)

	if backend == storage.BackendPostgres {
		s.dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := s.dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			s.dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}

	// redis backs the rate limiter too, so it is needed even with another storage backend
	if backend == storage.BackendRedis || cfg.MutationsRateLimitPerMin > 0 {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		if params.HoneycombTracingEnabled {
			s.redisClient.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("smartnotes", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	s.storage, err = storage.New(ctx, storage.Params{
		Backend:         backend,
		MemoryMaxBlobKB: cfg.MemoryMaxBlobKB,
		FileDir:         cfg.FileStorageDir,
		BoltPath:        cfg.BoltDBPath,
		PostgresTable:   cfg.PostgresTable,
		RedisClient:     s.redisClient,
		DBPool:          s.dbPool,
	})
	if err != nil {
		_ = s.closeClients()
		return nil, fmt.Errorf("new storage [%s]: %w", backend, err)
	}
	log.Infof("notes storage backend: %s", backend)

	s.notesStore = notes.NewStore(
		s.storage,
		notes.WithKey(cfg.StorageKey),
		notes.WithLocation(location),
	)
	s.notesStore.Initialize(ctx)
	s.metricsManager.GaugeNotes.Set(float64(s.notesStore.Len()))

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("smartnotes-router"))

	r.HandleFunc("/", s.handleRoot).Methods("GET").Name("root")

	var reqRateLimiter middleware.RequestRateLimiter
	if s.redisClient != nil {
		reqRateLimiter = redis_rate.NewLimiter(s.redisClient)
	}

	notesHandler := notesBox.NewHandler(
		s.notesStore,
		s.metricsManager,
		s.location,
	)
	notesHandler.SetupRoutes(r, reqRateLimiter, s.config.MutationsRateLimitPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins...))
	r.Use(middleware.DrainAndCloseRequest(maxRequestBodyBytes))

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	msg := "smartnotes up"
	if s.versionInfo != "" {
		msg = fmt.Sprintf("%s, version: %s", msg, s.versionInfo)
	}
	pkg.WriteTextResponseOK(w, msg)
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.InstrumentMetricHandler(
			s.promRegistry,
			promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the storage goes away
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if err := s.closeClients(); err != nil {
		log.Errorf("close storage clients: %s", err)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) closeClients() error {
	var err error
	if s.storage != nil {
		err = multierr.Append(err, s.storage.Close())
	}
	if s.redisClient != nil {
		err = multierr.Append(err, s.redisClient.Close())
	}
	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
	return err
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
