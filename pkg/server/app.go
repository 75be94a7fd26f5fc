package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "ChallengeArena/internal/domain/repository"
	"ChallengeArena/internal/handler/ws"
	mid "ChallengeArena/internal/middleware"
	"ChallengeArena/internal/service/ratelimit"
	"ChallengeArena/internal/usecase"
	"ChallengeArena/pkg/config"
	xhttp "ChallengeArena/pkg/http"
	pkgkafka "ChallengeArena/pkg/kafka"
	applogger "ChallengeArena/pkg/logger"
	"ChallengeArena/pkg/queue"
)

const limiterIdle = 10 * time.Minute

// Components are the long-running parts the App starts and stops.
// Consumer, Queue, Limiter and Notifier are optional.
type Components struct {
	Orchestrator *usecase.Orchestrator
	Challenge    *usecase.ChallengeManager
	Notifier     drepo.Notifier
	Pipeline     *mid.VerdictPipeline
	Processor    *usecase.VerdictProcessor
	Consumer     *pkgkafka.Consumer
	Queue        *queue.RedisQueue
	Hub          *ws.Hub
	Limiter      *ratelimit.Limiter
	HTTP         *xhttp.Server
}

// drainer is a notifier with sends still in flight after the caller returned.
type drainer interface {
	Wait(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	lgr *applogger.Logger
	c   Components
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, lgr *applogger.Logger, c Components) *App {
	return &App{cfg: cfg, lgr: lgr, c: c}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with an external stop signal.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.c.Consumer != nil {
		if err := a.c.Consumer.Start(); err != nil {
			return err
		}
		a.lgr.Info("archive consumer started", applogger.String("topic", a.cfg.Kafka.Topic))
	}
	if a.c.Queue != nil {
		if err := a.c.Queue.Start(); err != nil {
			a.stopConsumer()
			return err
		}
	}

	a.c.Pipeline.Start(runCtx)

	if a.cfg.Challenge.AutoStart {
		a.c.Challenge.StartWindow(time.Now())
	}
	if err := a.c.Orchestrator.Start(runCtx); err != nil {
		a.lgr.Error("orchestrator start error", applogger.Error(err))
		a.shutdown()
		return err
	}

	go a.c.Hub.Run(runCtx)
	if a.c.Limiter != nil {
		go a.sweep(runCtx)
	}

	if err := a.c.HTTP.Start(); err != nil {
		a.lgr.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}
	a.lgr.Info("arena running",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("archive", a.c.Processor.Backend()),
		applogger.Strings("tickers", a.cfg.Market.Tickers))

	var runErr error
	select {
	case <-ctx.Done():
		a.lgr.Info("shutdown signal received")
	case runErr = <-a.c.HTTP.Errors():
	}

	cancel()
	a.shutdown()
	return runErr
}

func (a *App) sweep(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.c.Limiter.Sweep(limiterIdle); n > 0 {
				a.lgr.Debug("rate limiter swept", applogger.Int("keys", n))
			}
		}
	}
}

// shutdown stops producers of work before the sinks they feed.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	a.lgr.Info("shutting down...")

	if err := a.c.Orchestrator.Stop(ctx); err != nil {
		a.lgr.Warn("orchestrator stop error", applogger.Error(err))
	}
	a.drainNotifier(ctx)
	a.c.Hub.Close()
	if err := a.c.HTTP.Stop(ctx); err != nil {
		a.lgr.Error("http shutdown error", applogger.Error(err))
	}
	if err := a.c.Pipeline.Stop(ctx); err != nil {
		a.lgr.Warn("verdict pipeline stop error", applogger.Error(err))
	}
	if a.c.Queue != nil {
		if err := a.c.Queue.Stop(ctx); err != nil {
			a.lgr.Warn("queue stop error", applogger.Error(err))
		}
	}
	a.stopConsumer()

	a.lgr.Info("shutdown complete")
}

// drainNotifier waits for background notification sends once nothing can
// start new ones.
func (a *App) drainNotifier(ctx context.Context) {
	d, ok := a.c.Notifier.(drainer)
	if !ok {
		return
	}
	if err := d.Wait(ctx); err != nil {
		a.lgr.Warn("notifications still in flight at shutdown", applogger.Error(err))
	}
}

func (a *App) stopConsumer() {
	if a.c.Consumer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.c.Consumer.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.lgr.Warn("kafka consumer stop error", applogger.Error(err))
	}
}
