package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/utils/clock"

	"github.com/skillcoder/workload-reconciler/internal/adapters/outbound/k8s"
	"github.com/skillcoder/workload-reconciler/internal/config"
	"github.com/skillcoder/workload-reconciler/internal/httpserver"
	"github.com/skillcoder/workload-reconciler/internal/infra/appstate"
	"github.com/skillcoder/workload-reconciler/internal/infra/cronparser"
	"github.com/skillcoder/workload-reconciler/internal/infra/pinger"
	"github.com/skillcoder/workload-reconciler/internal/infra/retry"
	"github.com/skillcoder/workload-reconciler/internal/infra/shutdown"
	"github.com/skillcoder/workload-reconciler/internal/logic/controller"
	"github.com/skillcoder/workload-reconciler/internal/logic/endpoints"
	"github.com/skillcoder/workload-reconciler/internal/logic/restart"
	"github.com/skillcoder/workload-reconciler/internal/logic/tracker"
)

// App is the reconciler daemon with all dependencies wired.
type App struct {
	logger     *slog.Logger
	cfg        *config.Config
	appState   *appstate.AppState
	store      Store
	components []component
	pingers    []pinger.Pinger
}

// New wires the daemon. Nothing is started until Run.
func New(logger *slog.Logger, cfg *config.Config, signals <-chan os.Signal) (*App, error) {
	kubeConfig, err := clientcmd.BuildConfigFromFlags(cfg.KubeMaster, cfg.KubeConfig)
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(kubeConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	store, err := NewStore(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	clk := clock.RealClock{}
	k8sRepo := k8s.New(logger, clientset, cfg.Namespace)
	pods := tracker.New(logger, clk, controller.SeenEventsWindow)
	resolver := endpoints.NewResolver(logger, pods)

	retryer := retry.New(logger,
		retry.WithTimeout(cfg.APITimeout),
		retry.WithMaxRetries(cfg.APIMaxRetries),
	)

	controllerService := controller.New(
		logger,
		controller.Config{
			Namespace: cfg.Namespace,
			Interval:  cfg.Interval,
			Backoff: restart.Config{
				Initial:    cfg.BackoffInitial,
				Max:        cfg.BackoffMax,
				ResetAfter: cfg.BackoffResetAfter,
			},
		},
		k8sRepo,
		store,
		pods,
		resolver,
		cronparser.New(),
		retryer,
		clk,
	)

	pingerService := pinger.New(logger, cfg.PingerInterval, clk)
	appState := appstate.New(logger, clk, cfg.TerminationFile, signals, pingerService)

	httpServer := httpserver.New(logger, appState, controllerService, resolver, cfg.HTTPPort)
	metricsServer := httpserver.NewMetricsServer(logger, prometheus.DefaultGatherer, cfg.MetricsPort)

	return &App{
		logger:   logger,
		cfg:      cfg,
		appState: appState,
		store:    store,
		// start order; shutdown runs in reverse
		components: []component{
			resolver,
			controllerService,
			pingerService,
			metricsServer,
			httpServer,
		},
		pingers: []pinger.Pinger{
			store,
			k8sRepo,
			resolver,
			controllerService,
			metricsServer,
			httpServer,
		},
	}, nil
}

// Run starts every component, waits for a termination signal or ctx and
// shuts everything down.
func (a *App) Run(originCtx context.Context) error {
	if shutdown.CheckTerminationFile(originCtx, a.logger, a.cfg.TerminationFile) {
		return ErrTerminationFile
	}

	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting: %w", err)
	}

	// the store closes last
	a.appState.RegisterShutdowner(a.store)

	for _, p := range a.pingers {
		if err := a.appState.RegisterPinger(p); err != nil {
			return fmt.Errorf("register pinger %s: %w", p.Name(), err)
		}
	}

	readies := make([]<-chan struct{}, 0, len(a.components))

	for _, c := range a.components {
		if err := c.Start(ctx); err != nil {
			cancel()

			return errors.Join(
				fmt.Errorf("start %s: %w", c.Name(), err),
				a.appState.Shutdown(originCtx),
			)
		}

		a.appState.RegisterShutdowner(c)
		readies = append(readies, c.Ready())
	}

	select {
	case <-allChannelsClose(ctx, a.logger, readies...):
	case sig := <-a.appState.Quit():
		a.logger.InfoContext(ctx, "received termination signal during startup", "signal", sig.String())
		cancel()

		return a.shutdown(originCtx)
	}

	if ctx.Err() == nil {
		if err := a.appState.SetRunning(ctx); err != nil {
			a.logger.ErrorContext(ctx, "failed to set running state", "reason", err)
		}

		a.logger.InfoContext(ctx, "workload reconciler is running",
			"namespace", a.cfg.Namespace,
			"store", a.cfg.Store,
		)
	}

	select {
	case <-ctx.Done():
		a.logger.InfoContext(ctx, "context done, terminating")
	case sig := <-a.appState.Quit():
		a.logger.InfoContext(ctx, "received termination signal", "signal", sig.String())
	}

	cancel()

	return a.shutdown(originCtx)
}

func (a *App) shutdown(ctx context.Context) error {
	if err := a.appState.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	a.logger.InfoContext(ctx, "workload reconciler stopped")

	return nil
}

// allChannelsClose returns a channel closed once every input channel is
// closed, or once ctx is done.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		for i, ch := range chans {
			select {
			case <-ch:
			case <-ctx.Done():
				logger.InfoContext(ctx, "stopped waiting for components", "ready", i, "total", len(chans))

				return
			}
		}
	}()

	return out
}
