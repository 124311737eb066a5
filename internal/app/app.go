package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/weather-screen/internal/config"
	http2 "github.com/Nazarious-ucu/weather-screen/internal/handlers/http"
	"github.com/Nazarious-ucu/weather-screen/internal/models"
	"github.com/Nazarious-ucu/weather-screen/internal/producers"
	"github.com/Nazarious-ucu/weather-screen/internal/scheduler"
	"github.com/Nazarious-ucu/weather-screen/internal/services/cache"
	loggerT "github.com/Nazarious-ucu/weather-screen/internal/services/logger"
	metricsSvc "github.com/Nazarious-ucu/weather-screen/internal/services/metrics"
	serviceWeather "github.com/Nazarious-ucu/weather-screen/internal/services/weather"
	"github.com/Nazarious-ucu/weather-screen/internal/services/weather/decorators"
	"github.com/Nazarious-ucu/weather-screen/internal/view"
	fLogger "github.com/Nazarious-ucu/weather-screen/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type fetcher interface {
	Fetch(ctx context.Context, city string) (models.WeatherResult, error)
}

// ServiceContainer holds initialized dependencies.
type ServiceContainer struct {
	Screen    *view.Screen
	Refresher *scheduler.Refresher

	Router *gin.Engine
	Srv    *http.Server

	redisClient *redis.Client
	rabbitConn  *rabbitmq.Conn
	publisher   *rabbitmq.Publisher
	fileLogger  *zap.Logger
}

// App wires the weather screen together and runs it until ctx is done.
type App struct {
	cfg    config.Config
	l      zerolog.Logger
	m      *metricsSvc.Metrics
	out    io.Writer
	client serviceWeather.HTTPClient
}

type Option func(*App)

// WithOutput sets where the rendered screen is written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(c serviceWeather.HTTPClient) Option {
	return func(a *App) { a.client = c }
}

func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics, opts ...Option) *App {
	a := &App{
		cfg: cfg,
		l:   logger,
		m:   met,
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start initializes services, serves HTTP and blocks until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.init()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	screenDone := make(chan error, 1)
	go func() {
		screenDone <- srvContainer.Screen.Run(ctx)
	}()

	if srvContainer.Refresher != nil {
		if err := srvContainer.Refresher.Start(ctx); err != nil {
			a.l.Error().Err(err).Msg("refresher disabled")
			srvContainer.Refresher = nil
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		a.l.Info().Str("address", a.cfg.Server.Address).Msg("HTTP server running")
		if err := srvContainer.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	a.l.Info().
		Str("city", a.cfg.Screen.City).
		Msg("weather screen started")

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info().Msg("shutdown signal received, stopping weather screen")
	case runErr = <-serverErr:
		a.l.Error().Err(runErr).Msg("HTTP server failed")
	}

	cancel()
	<-screenDone

	if err := a.Shutdown(srvContainer); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown application")
		return err
	}
	a.l.Info().Msg("application shutdown successfully")
	return runErr
}

// Shutdown stops the HTTP server, the scheduler and every client connection.
func (a *App) Shutdown(srvContainer ServiceContainer) error {
	a.l.Info().Msg("stopping weather screen…")

	if srvContainer.Refresher != nil {
		srvContainer.Refresher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srvContainer.Srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if srvContainer.publisher != nil {
		srvContainer.publisher.Close()
	}
	if srvContainer.rabbitConn != nil {
		if err := srvContainer.rabbitConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if srvContainer.redisClient != nil {
		if err := srvContainer.redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if srvContainer.fileLogger != nil {
		// Sync on a regular file can fail harmlessly on some platforms.
		if err := srvContainer.fileLogger.Sync(); err != nil {
			a.l.Warn().Err(err).Msg("failed to sync file logger")
		}
	}

	a.l.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// init builds all dependencies without starting anything.
func (a *App) init() (ServiceContainer, error) {
	a.l.Info().
		Str("city", a.cfg.Screen.City).
		Str("api_url", a.cfg.WeatherAPIURL).
		Bool("breaker", a.cfg.Breaker.Enabled).
		Bool("redis", a.cfg.Redis.Enabled).
		Bool("rabbitmq", a.cfg.RabbitMQ.Enabled).
		Msg("initializing weather screen")

	var srvContainer ServiceContainer

	httpClient := a.client
	if httpClient == nil {
		fileLogger, err := fLogger.NewFileLogger(a.cfg.HTTPLogsPath)
		if err != nil {
			a.l.Error().Err(err).Msg("failed to create HTTP file logger, outbound calls are not audited")
			fileLogger = zap.NewNop()
		}
		srvContainer.fileLogger = fileLogger
		httpClient = &http.Client{Transport: loggerT.NewRoundTripper(fileLogger)}
	}

	var weatherFetcher fetcher = serviceWeather.NewClientWeatherAPI(
		a.cfg.WeatherAPIKey,
		a.cfg.WeatherAPIURL,
		httpClient,
		a.l,
	)

	if a.cfg.Breaker.Enabled {
		weatherFetcher = serviceWeather.NewBreakerClient("WeatherAPI", serviceWeather.BreakerConfig{
			TimeInterval: time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
			TimeTimeOut:  time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
			RepeatNumber: a.cfg.Breaker.RepeatNumber,
		}, weatherFetcher)
	}

	if a.cfg.Redis.Enabled {
		srvContainer.redisClient = newRedisConnection(a.cfg.Redis.Address(), a.cfg.Redis.DbType)
		cacheMetrics := cache.NewMetricsDecorator[models.WeatherResult](
			cache.NewRedisClient[models.WeatherResult](
				srvContainer.redisClient,
				a.l,
				time.Duration(a.cfg.Redis.LiveTime)*time.Minute,
			),
			metricsSvc.NewPromCollector(a.m.Registry),
		)
		weatherFetcher = decorators.NewCachedService(weatherFetcher, cacheMetrics, a.l)
	}

	screenOpts := []view.Option{
		view.WithFetchTimeout(a.cfg.FetchTimeout()),
		view.WithObserver(a.m),
		view.WithListener(view.NewTerminalRenderer(a.out)),
	}

	if a.cfg.RabbitMQ.Enabled {
		conn, err := a.setupConn()
		if err != nil {
			return ServiceContainer{}, err
		}
		publisher, err := a.setupPublisher(conn)
		if err != nil {
			_ = conn.Close()
			return ServiceContainer{}, err
		}
		srvContainer.rabbitConn = conn
		srvContainer.publisher = publisher
		screenOpts = append(screenOpts, view.WithListener(producers.NewProducer(publisher, a.m, a.l)))
	}

	srvContainer.Screen = view.NewScreen(a.cfg.Screen.City, weatherFetcher, a.l, screenOpts...)

	if a.cfg.Screen.RefreshSpec != "" {
		srvContainer.Refresher = scheduler.NewRefresher(srvContainer.Screen, a.cfg.Screen.RefreshSpec, a.m, a.l)
	}

	srvContainer.Router = a.newRouter(srvContainer.Screen)
	srvContainer.Srv = &http.Server{
		Addr:        a.cfg.Server.Address,
		Handler:     srvContainer.Router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	return srvContainer, nil
}

func (a *App) newRouter(screen *view.Screen) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(a.m.HTTPMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.m.Registry, promhttp.HandlerOpts{})))

	weatherHandler := http2.NewHandler(screen)
	router.GET("/weather", weatherHandler.GetWeather)
	router.PUT("/weather/city", weatherHandler.SetCity)
	router.POST("/weather/refresh", weatherHandler.Refresh)

	return router
}

func newRedisConnection(connString string, dbType int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: connString, DB: dbType})
}
