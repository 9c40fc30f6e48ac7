package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-billing/internal/domain/menu"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
	"github.com/xenking/kart-billing/internal/handler"
	"github.com/xenking/kart-billing/internal/register"
	"github.com/xenking/kart-billing/pkg/health"
	"github.com/xenking/kart-billing/pkg/httpmiddleware"
)

const serviceName = "billing-api"

// Run opens the store, starts the HTTP server and handles graceful shutdown.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Driver),
	)

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	catalog, fromDefaults, err := menu.Load(ctx, store.Menu)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}
	lg.Info("Menu loaded", zap.Int("items", catalog.Len()), zap.Bool("defaults", fromDefaults))

	orders, err := orderlog.NewService(store.Orders, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create order log")
	}
	counters := register.NewManager(catalog, orders)

	healthSvc := health.New()
	healthSvc.AddReadiness(health.Check{Name: cfg.Store.Driver, Timeout: 5 * time.Second, Func: health.PingCheck(store)})
	healthSvc.AddLiveness(health.Check{Name: "goroutines", Func: health.GoroutineCountCheck(10000)})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	router := handler.NewHandler(catalog, counters, orders).Router()
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	mux := chi.NewRouter()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	mux.Mount("/", router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			middlewares(zctx.From(ctx), cfg.CORS, routeFinder, m.TracerProvider(), m.MeterProvider())...,
		),
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// middlewares is the chain in front of every route, outermost first. The
// request id and logger come before Recovery so panics are logged with them.
func middlewares(
	lg *zap.Logger,
	cors CORSConfig,
	find httpmiddleware.RouteFinder,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) []httpmiddleware.Middleware {
	return []httpmiddleware.Middleware{
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins: cors.Origins,
			Headers: []string{"Content-Type", httpmiddleware.HeaderRequestID},
			MaxAge:  int(cors.MaxAge.Seconds()),
		}),
		httpmiddleware.Instrument(serviceName, find, tp, mp),
		httpmiddleware.LogRequests(find),
	}
}
