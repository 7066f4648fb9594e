package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"storefront-service/internal/api"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/domain"
	"storefront-service/internal/observability"
	"storefront-service/internal/presence"
	"storefront-service/internal/state"
	"storefront-service/internal/store"
	"storefront-service/internal/textgen"
)

const (
	defaultAppName = "storefront-service"
	sweepInterval  = 10 * time.Minute
	initialFetch   = 15 * time.Second
)

var (
	suggestTitle    string
	suggestCategory string
	suggestType     string
)

var rootCmd = &cobra.Command{
	Use:          defaultAppName,
	Short:        "Digital goods storefront backed by a hosted database",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate a product description and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuggest(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestTitle, "title", "", "product title")
	suggestCmd.Flags().StringVar(&suggestCategory, "category", "", "product category")
	suggestCmd.Flags().StringVar(&suggestType, "type", string(domain.ProductTypeSoftware), "software or ebook")
	_ = suggestCmd.MarkFlagRequired("title")

	rootCmd.AddCommand(serveCmd, suggestCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal: the environment may be provided another way.
		fmt.Fprintln(os.Stderr, "INFO: .env file not found, relying on system environment")
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func runSuggest(ctx context.Context, out io.Writer) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	kind := domain.ProductType(suggestType)
	if kind != domain.ProductTypeSoftware && kind != domain.ProductTypeEbook {
		return fmt.Errorf("invalid --type %q (want software or ebook)", suggestType)
	}
	suggester := textgen.NewSuggester(newGenerator(ctx, cfg.Generator, logger), logger)
	_, err = fmt.Fprintln(out, suggester.Suggest(ctx, suggestTitle, suggestCategory, kind))
	return err
}

func newGenerator(ctx context.Context, gc config.GeneratorConfig, logger *zap.Logger) textgen.Generator {
	gen, err := textgen.NewGenAIGenerator(ctx, gc.APIKey, gc.Model)
	if err != nil {
		if errors.Is(err, textgen.ErrDisabled) {
			logger.Info("text generator disabled, suggestions will use the fallback text")
		} else {
			logger.Warn("text generator unavailable", zap.Error(err))
		}
		return nil
	}
	return gen
}

func openGateway(ctx context.Context, bc config.BackendConfig, logger *zap.Logger) (store.Gateway, error) {
	if !bc.Configured() {
		logger.Warn("backend not configured, running disconnected")
		return store.Disconnected{}, nil
	}
	switch bc.Driver {
	case config.DriverPostgres:
		pg, err := store.OpenPostgres(ctx, bc.PostgresDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("postgres backend connected")
		return pg, nil
	default:
		logger.Info("rest backend configured", zap.String("url", bc.URL))
		return store.NewRESTStore(bc.URL, bc.Key, &http.Client{Timeout: 20 * time.Second}), nil
	}
}

func runServe(parent context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	logger.Info("starting service", zap.String("env", cfg.AppEnv), zap.String("log_level", cfg.LogLevel))

	profile, err := config.LoadProfile(cfg.Storefront.ProfilePath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	gw, err := openGateway(ctx, cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}

	// --- Application state and its listeners ---
	st := state.New(gw, logger.Named("state"))
	carousel := catalog.NewCarousel(cfg.Carousel.Transition, cfg.Carousel.Autoplay)
	healthReporter := api.NewHealthReporter()
	st.OnRefresh(func(snap state.Snapshot) {
		carousel.Reset(catalog.BuildSlides(snap.Ads, snap.Products))
	})
	st.OnRefresh(healthReporter.Observe)

	fetchCtx, cancelFetch := context.WithTimeout(ctx, initialFetch)
	if err := st.FetchAll(fetchCtx); err != nil {
		logger.Warn("initial fetch failed, serving empty catalog", zap.Error(err))
	}
	cancelFetch()

	// --- Background loops ---
	visitors := presence.NewSimulator(cfg.Presence.Interval)
	carts := cart.NewRegistry(cfg.Storefront.SessionTTL)
	go visitors.Run(ctx)
	go carousel.Autoplay(ctx)
	go carts.Run(ctx, sweepInterval)

	// --- HTTP ---
	httpAPIHandler := api.NewHTTPHandler(api.Dependencies{
		State:         st,
		Carts:         carts,
		Carousel:      carousel,
		Gate:          auth.NewGate(cfg.Access.AdminKey, cfg.Access.TokenSecret, cfg.Access.TokenTTL),
		Suggester:     textgen.NewSuggester(newGenerator(ctx, cfg.Generator, logger), logger.Named("textgen")),
		Visitors:      visitors,
		Profile:       *profile,
		PublicBaseURL: cfg.Storefront.PublicBaseURL,
		SessionTTL:    cfg.Storefront.SessionTTL,
		SecureCookies: cfg.AppEnv == "production",
		Logger:        logger,
	})

	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, st)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	serveErr := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	// --- gRPC ---
	grpcServer := api.NewGRPCServer(logger.Named("grpc"), healthReporter)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GrpcServer.Port, err)
	}
	go func() {
		logger.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-serveErr:
		logger.Error("server failed", zap.Error(runErr))
	}

	cancel()
	shutdown(logger, httpServer, grpcServer, healthReporter, gw)
	return runErr
}

func setupBaseMiddleware(router *chi.Mux, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(observability.RequestLoggerMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
}

func registerHealthCheck(router *chi.Mux, st *state.State) {
	router.Get("/api/v1/healthz", func(w http.ResponseWriter, r *http.Request) {
		backend := "connected"
		if !st.Connected() {
			backend = "disconnected"
		}
		// Always 200; the payload carries the backend status.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"backend":     backend,
		})
	})
}

func shutdown(logger *zap.Logger, httpServer *http.Server, grpcServer *grpc.Server, hr *api.HealthReporter, gw store.Gateway) {
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	hr.Shutdown()
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	}

	select {
	case <-stoppedGrpc:
	case <-shutdownCtx.Done():
		logger.Warn("gRPC graceful shutdown timed out, forcing stop")
		grpcServer.Stop()
	}

	if err := gw.Close(); err != nil {
		logger.Warn("error closing backend", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
