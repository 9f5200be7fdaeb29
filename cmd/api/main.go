package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"golang.org/x/sync/errgroup"

	"github.com/hostplane/pveman/cmd/api/api"
	"github.com/hostplane/pveman/cmd/api/config"
	"github.com/hostplane/pveman/lib/cluster"
	"github.com/hostplane/pveman/lib/guest"
	"github.com/hostplane/pveman/lib/logger"
	mw "github.com/hostplane/pveman/lib/middleware"
	"github.com/hostplane/pveman/lib/otel"
	"github.com/hostplane/pveman/lib/proxmox"
	"github.com/hostplane/pveman/lib/vms"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
	slog.Info("main() exiting normally")
}

func run() error {
	cfg := config.Load()

	hostname, _ := os.Hostname()
	otelCfg := otel.Config{
		Enabled:           cfg.OtelEnabled,
		Endpoint:          cfg.OtelEndpoint,
		ServiceName:       cfg.OtelServiceName,
		ServiceInstanceID: hostname,
		Insecure:          cfg.OtelInsecure,
		Version:           cfg.Version,
		Env:               cfg.OtelEnv,
	}

	otelProvider, otelShutdown, err := otel.Init(context.Background(), otelCfg)
	if err != nil {
		// Log warning but don't fail - graceful degradation
		slog.Warn("failed to initialize OpenTelemetry, continuing without telemetry", "error", err)
	}
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				slog.Warn("error shutting down OpenTelemetry", "error", err)
			}
		}()
	}

	var otelHandler slog.Handler
	if otelProvider != nil {
		otelHandler = otelProvider.LogHandler
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, otelHandler)
	slog.SetDefault(log)

	if cfg.OtelEnabled {
		log.Info("OpenTelemetry enabled", "endpoint", cfg.OtelEndpoint, "service", cfg.OtelServiceName)
	}
	if cfg.JwtSecret == "" {
		log.Warn("JWT_SECRET not configured - API authentication will fail")
	}

	client, err := proxmox.New(proxmox.Config{
		Host:        cfg.ProxmoxHost,
		Port:        cfg.ProxmoxPort,
		TokenID:     cfg.ProxmoxTokenID,
		TokenSecret: cfg.ProxmoxTokenSecret,
		InsecureTLS: cfg.ProxmoxInsecureTLS,
		Timeout:     cfg.ProxmoxTimeout,
	})
	if err != nil {
		return fmt.Errorf("create proxmox client: %w", err)
	}
	log.Info("proxmox client configured", "host", cfg.ProxmoxHost, "port", cfg.ProxmoxPort)

	var vmMetrics *vms.Metrics
	var guestMetrics *guest.Metrics
	if otelProvider != nil && otelProvider.Meter != nil {
		if vmMetrics, err = vms.NewMetrics(otelProvider.MeterFor("vms"), otelProvider.TracerFor("vms")); err != nil {
			log.Warn("failed to create vm metrics", "error", err)
		}
		if guestMetrics, err = guest.NewMetrics(otelProvider.MeterFor("guest")); err != nil {
			log.Warn("failed to create guest metrics", "error", err)
		}
	}

	vmManager := vms.NewManager(client, vmMetrics)
	clusterManager := cluster.NewManager(client)
	guestManager := guest.NewManager(client, guestMetrics)
	svc := api.New(cfg, vmManager, clusterManager, guestManager)

	var httpMetricsMw func(http.Handler) http.Handler
	if otelProvider != nil && otelProvider.Meter != nil {
		if httpMetrics, err := mw.NewHTTPMetrics(otelProvider.Meter); err == nil {
			httpMetricsMw = httpMetrics.Middleware
		}
	}

	r := chi.NewRouter()

	// Health check stays unauthenticated for load balancer probes.
	r.With(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		mw.InjectLogger(log),
	).Get("/healthz", svc.GetHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)

		// OpenTelemetry tracing middleware FIRST (creates span context)
		if cfg.OtelEnabled {
			r.Use(otelchi.Middleware(cfg.OtelServiceName, otelchi.WithChiRoutes(r)))
		}

		r.Use(mw.InjectLogger(log))
		// Access logger AFTER otelchi so trace context is available
		r.Use(mw.AccessLogger(log))
		if httpMetricsMw != nil {
			r.Use(httpMetricsMw)
		}

		// Must exceed the exec endpoint's wait ceiling of 10 minutes.
		r.Use(middleware.Timeout(11 * time.Minute))

		r.Use(mw.JwtAuth(cfg.JwtSecret))

		svc.Routes(r)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		log.Info("starting pveman API", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			return err
		}
		return nil
	})

	grp.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		// Use WithoutCancel to preserve context values while preventing cancellation
		shutdownCtx := context.WithoutCancel(gctx)
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown http server", "error", err)
			return err
		}
		log.Info("http server shutdown complete")
		return nil
	})

	return grp.Wait()
}
