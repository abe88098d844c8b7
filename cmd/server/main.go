package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	grpcpkg "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	_ "github.com/jackc/pgx/v5/stdlib"

	"storefront/cmd/server/config"
	"storefront/internal/adapters/web"
	"storefront/internal/catalog"
	"storefront/internal/observability"
	"storefront/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func run(ctx context.Context) error {
	httpCfg, err := config.LoadHTTP()
	if err != nil {
		return err
	}
	obsCfg, err := config.LoadObservability()
	if err != nil {
		return err
	}

	source, submitter, err := buildUpstream(log.Printf)
	if err != nil {
		return err
	}

	loader := catalog.NewLoader(source, log.Printf)
	if err := loader.Load(ctx); err != nil {
		// The server still starts; /catalog/reload can recover later.
		log.Printf("initial catalog load failed: %v", err)
	}

	recorder, cleanupJournal, err := buildJournal(ctx, log.Printf)
	if err != nil {
		return err
	}
	defer cleanupJournal()

	registry := session.NewRegistry()
	metrics := observability.NewMetrics()

	var limiter *web.RateLimiter
	if httpCfg.RateLimitInterval > 0 && httpCfg.RateLimitBurst > 0 {
		limiter = web.NewRateLimiter(httpCfg.RateLimitInterval, httpCfg.RateLimitBurst, metrics.AddRateLimitWait)
	}

	server := web.NewServer(web.Config{
		Registry:  registry,
		Catalog:   loader,
		Submitter: submitter,
		Journal:   recorder,
		Metrics:   metrics,
		Limiter:   limiter,
		Logf:      log.Printf,
	})

	httpSrv := &http.Server{
		Addr:    httpCfg.Addr,
		Handler: server.Handler(),
	}

	obsMux := http.NewServeMux()
	obsMux.Handle("/metrics", observability.Handler(metrics))
	obsSrv := &http.Server{
		Addr:    obsCfg.Addr,
		Handler: obsMux,
	}

	var (
		grpcSrv      *grpcpkg.Server
		healthServer *health.Server
		healthLis    net.Listener
	)
	if healthCfg := config.LoadHealth(); healthCfg.Addr != "" {
		healthLis, err = net.Listen("tcp", healthCfg.Addr)
		if err != nil {
			return err
		}
		grpcSrv = grpcpkg.NewServer()
		healthServer = health.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, healthServer)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

		if env := os.Getenv("APP_ENV"); env != "production" {
			reflection.Register(grpcSrv)
			log.Printf("gRPC reflection enabled (APP_ENV=%s)", env)
		}
		log.Printf("gRPC health endpoint on %s", healthCfg.Addr)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("storefront API on %s", httpCfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := obsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("observability server error: %v", err)
		}
		return nil
	})

	if grpcSrv != nil {
		g.Go(func() error {
			return grpcSrv.Serve(healthLis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		if healthServer != nil {
			healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		}
		metrics.MarkShutdown(metrics.Snapshot().InFlight)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = obsSrv.Shutdown(shutdownCtx)
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}

		registry.Each(func(s *session.Session) { s.Stop() })
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
