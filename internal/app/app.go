package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/reeezaw1/rzarmndrv01/internal/config"
	"github.com/reeezaw1/rzarmndrv01/internal/httpapi"
	"github.com/reeezaw1/rzarmndrv01/internal/scheduler"
	"github.com/reeezaw1/rzarmndrv01/internal/store"
	"github.com/reeezaw1/rzarmndrv01/internal/telegram"
)

// App owns every long-lived component and wires them together at startup.
// Nothing here is a package-level singleton; the bot handle, repo and
// logger travel through constructors.
type App struct {
	cfg config.Config
	log *zap.Logger
	bot *tgbotapi.BotAPI

	repo   store.Repo
	router *telegram.Router
	sched  *scheduler.Scheduler
	api    *httpapi.Server
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	return &App{cfg: cfg, log: log, bot: bot}, nil
}

// Run starts the store, scheduler, HTTP API and bot polling, then blocks
// until a shutdown signal. An in-flight due-check pass finishes before
// resources are released.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting reminder-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("tick", a.cfg.TickInterval),
	)

	repo, err := store.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("postgres ready")

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, a.cfg.DefaultTZ)
	a.sched = scheduler.New(a.repo, a.log, a.router, a.cfg.TickInterval)
	a.api = httpapi.New(a.cfg.HTTPAddr, a.repo, a.log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sched.Run(ctx)
	}()

	go func() {
		if err := a.api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			a.bot.StopReceivingUpdates()

			// Let the in-flight tick drain before closing the repo.
			wg.Wait()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.api.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}

			if a.repo != nil {
				a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
