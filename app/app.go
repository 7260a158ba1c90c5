package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/AndreyBeserra/Helppybot/assets"
	"github.com/AndreyBeserra/Helppybot/bot"
	"github.com/AndreyBeserra/Helppybot/catalog"
	"github.com/AndreyBeserra/Helppybot/config"
	"github.com/AndreyBeserra/Helppybot/handlers"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"
	"github.com/AndreyBeserra/Helppybot/logger"
	"github.com/AndreyBeserra/Helppybot/server"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"
)

type App struct {
	Config  config.Config
	Log     *zap.Logger
	Catalog *catalog.Store
	Assets  *assets.Library
	Bot     *bot.TBot
	Server  *server.Server
}

// New wires the application. Missing asset folders are only reported, the bot
// tells users about them at runtime.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("newApp"))
	defer span.Close()

	log, err := logger.New(ctx, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	developer := &lateBot{}
	log = logger.WithDeveloperChat(log, developer, cfg.DeveloperChatID)
	log.Info("Starting Helppy", zap.String("mode", cfg.Mode), zap.String("assets", cfg.AssetsDir))

	store, err := catalog.OpenStore(log.Named("catalog"), cfg.CatalogFile, handlers.ReservedIDs()...)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	log.Info("Catalog ready",
		zap.String("source", catalogSource(store)),
		zap.Int("tutorials", len(store.Catalog().Tutorials)),
		zap.Bool("watch", cfg.CatalogWatch && store.Path() != ""),
	)

	library := assets.New(cfg.AssetsDir, log.Named("assets"))
	if _, err := library.Preflight(store.Catalog().Folders()); err != nil {
		log.Warn("Some asset folders are missing", zap.Error(err))
	}

	tBot, err := bot.NewBot(ctx, log.Named("bot"), bot.Settings{
		Token:       cfg.Token,
		PollTimeout: cfg.PollTimeout,
	}, handlers.Deps{
		Log:     log.Named("handlers"),
		Catalog: store,
		Assets:  library,
		PerRow:  cfg.KeyboardRowWidth,

		DeveloperChatID: cfg.DeveloperChatID,
	})
	if err != nil {
		return nil, err
	}
	developer.set(tBot.Bot)

	var processor server.UpdateProcessor
	if cfg.Mode == config.ModeWebhook {
		processor = tBot
	}

	return &App{
		Config:  cfg,
		Log:     log,
		Catalog: store,
		Assets:  library,
		Bot:     tBot,
		Server:  server.New(log.Named("http"), processor, cfg.WebhookSecret),
	}, nil
}

// Run blocks until ctx is cancelled or one of the components fails.
// The webhook is registered before anything starts, so a failure leaves
// nothing running.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Mode == config.ModeWebhook {
		if err := a.Bot.SetWebhook(a.Config.WebhookURL, a.Config.WebhookSecret); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.Config.CatalogWatch {
		g.Go(func() error { return a.Catalog.Watch(ctx) })
	}
	if a.Config.Mode != config.ModeWebhook {
		g.Go(func() error { return a.Bot.Poll(ctx) })
	}
	if a.Config.HTTPAddr != "" {
		g.Go(func() error { return a.Server.ListenAndServe(ctx, a.Config.HTTPAddr) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.Log.Info("Helppy stopped", zap.Error(err))
	_ = a.Log.Sync()
	return err
}

// catalogSource names where the catalog comes from, for logs.
func catalogSource(s *catalog.Store) string {
	if s.Path() == "" {
		return "embedded"
	}
	return s.Path()
}

// lateBot lets the logger report to the developer chat once the bot exists.
type lateBot struct {
	bot logger.Bot
}

func (l *lateBot) set(b logger.Bot) {
	l.bot = b
}

func (l *lateBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if l.bot == nil {
		return nil, errors.New("bot is not ready yet")
	}
	return l.bot.Send(to, what, opts...)
}
