package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"canvasrelay/internal/core/services"
	httphandlers "canvasrelay/internal/handlers/http"
	"canvasrelay/internal/infrastructure/middleware"
	"canvasrelay/internal/infrastructure/monitoring"
	"canvasrelay/internal/infrastructure/repositories/memory"
	"canvasrelay/internal/infrastructure/signal"
	"canvasrelay/pkg/config"
	"canvasrelay/pkg/logger"
	"canvasrelay/pkg/tracing"
	"canvasrelay/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var configPaths = []string{
	"configs/config.yaml",
	"/etc/canvasrelay/config.yaml",
	"config.yaml",
}

func main() {
	startedAt := time.Now()

	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		// Logger is not configured yet.
		zl := logger.New("info")
		zl.Sugar().Fatalw("failed to load configuration", "error", err)
	}

	zapLogger := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()
	if envErr == nil {
		log.Debug("loaded environment from .env")
	}

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Session core
	connections := signal.NewConnectionSet()
	router := services.NewSessionRouter(
		memory.NewMemoryParticipantRegistry(),
		memory.NewMemoryCanvasStore(),
		services.NewSignalingRelay(connections),
		log.Named("session"),
	)

	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)
	hub := signal.NewHub(router, connections, collector, log.Named("hub"))

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	wsServer := signal.NewWebSocketServer(hub, signal.Options{
		PingInterval:      cfg.Signal.PingInterval,
		PongTimeout:       cfg.Signal.PongTimeout,
		WriteTimeout:      cfg.Signal.WriteTimeout,
		MaxMessageSize:    cfg.Signal.MaxMessageSizeBytes,
		SendQueueSize:     cfg.Signal.SendQueueSize,
		MessagesPerSecond: websocketRate(cfg),
		Burst:             cfg.RateLimiting.WebSocket.Burst,
	}, cfg.CORS.AllowedOrigins, log.Named("websocket"))

	// Health checks
	healthChecker := monitoring.NewHealthChecker(log.Named("health"))
	healthChecker.AddCheck("session_hub", func(ctx context.Context) (bool, error) {
		_, err := hub.Stats(ctx)
		return err == nil, err
	}, 30*time.Second, 2*time.Second)
	healthChecker.StartBackgroundChecks(hubCtx)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RecoveryMiddleware(log),
		middleware.TracingMiddleware(),
		middleware.RequestLogger(logger.NewContextLogger(zapLogger)),
		middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins),
		middleware.NewHTTPRateLimitMiddleware(cfg),
		middleware.ErrorHandlerMiddleware(log),
	)

	engine.GET(cfg.Signal.Path, gin.WrapF(wsServer.HandleWebSocket))
	httphandlers.NewSessionHandler(hub, healthChecker, cfg.WebRTC.ICEServers).SetupRoutes(engine)

	if cfg.Monitoring.PrometheusEnabled {
		engine.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
		log.Infow("prometheus metrics enabled", "path", cfg.Monitoring.MetricsPath)
	}

	if cfg.Static.Dir != "" {
		engine.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Static.Dir))))
		log.Infow("serving static files", "dir", cfg.Static.Dir)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting canvasrelay server", "address", cfg.Server.Address, "ws_path", cfg.Signal.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}

	// Hijacked websocket connections are not tracked by the server; stopping
	// the hub closes them.
	stopHub()
	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		log.Warn("session hub did not stop before shutdown timeout")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer provider", "error", err)
	}

	log.Infow("canvasrelay server stopped", "uptime", utils.FormatDuration(time.Since(startedAt)))
}

// resolveConfigPath honours CANVASRELAY_CONFIG, then the first existing
// default location.
func resolveConfigPath() string {
	if path := os.Getenv("CANVASRELAY_CONFIG"); path != "" {
		return path
	}
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return configPaths[0]
}

func websocketRate(cfg *config.Config) float64 {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.MessagesPerSecond
}
