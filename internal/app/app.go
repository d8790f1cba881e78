package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"marketscholar/internal/alerting"
	"marketscholar/internal/config"
	"marketscholar/internal/marketdata"
	"marketscholar/internal/scheduler"
	"marketscholar/internal/service"
	"marketscholar/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newProvider() marketdata.Provider {
	return marketdata.NewClient(marketdata.Options{
		BaseURL:   a.Config.Market.BaseURL,
		APIToken:  a.Config.Market.APIToken,
		Timeout:   a.Config.Market.RequestTimeout,
		UserAgent: a.Config.Market.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running scoring service: a daily-aligned scoring loop
// and a faster call-evaluation loop, both until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to run the scoring service")
	}
	defer closeStore()

	svc := service.New(a.Config, store, a.newProvider(), a.newNotifier(), a.Logger)

	scoringSched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	evaluationSched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Evaluation.Interval,
		AlignToStart: false,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Msg("starting scoring service")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scoringSched.Run(gctx, svc.ProcessBatch)
	})
	g.Go(func() error {
		return evaluationSched.Run(gctx, func(tickCtx context.Context, _ time.Time) error {
			return svc.EvaluateCalls(tickCtx, 0)
		})
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("scoring service stopped")
	return nil
}

// Score performs one immediate scoring batch and exits.
func (a *App) Score(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to score")
	}
	defer closeStore()

	svc := service.New(a.Config, store, a.newProvider(), a.newNotifier(), a.Logger)
	return svc.ProcessBatch(ctx, time.Now().UTC())
}

// EvaluateOptions configure a one-shot call evaluation pass.
type EvaluateOptions struct {
	Days int
}

// Evaluate runs one call-maturation pass and exits.
func (a *App) Evaluate(ctx context.Context, opts EvaluateOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to evaluate calls")
	}
	defer closeStore()

	svc := service.New(a.Config, store, a.newProvider(), a.newNotifier(), a.Logger)
	return svc.EvaluateCalls(ctx, a.Config.ResolveMaturationDays(opts.Days))
}

// ExportOptions hold parameters for exporting narrative history.
type ExportOptions struct {
	Ticker    string
	Narrative string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit    int
	Analysts bool
}

// IngestOptions point at the CSV files to load.
type IngestOptions struct {
	SnapshotsPath string
	CallsPath     string
	ArticlesPath  string
}

// AnalyzeOptions configure the offline analyze command.
type AnalyzeOptions struct {
	SnapshotsPath string
}
