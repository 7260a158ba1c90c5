package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AndreyBeserra/Helppybot/handlers"
	"github.com/AndreyBeserra/Helppybot/handlers/middleware"
	"github.com/AndreyBeserra/Helppybot/lib/http"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type Settings struct {
	Token       string
	URL         string
	PollTimeout time.Duration
	// Offline skips getMe, the bot username stays empty.
	Offline bool
}

type TBot struct {
	Bot    *tele.Bot
	Router *handlers.Router
	log    *zap.Logger

	// updateMu keeps webhook deliveries, which arrive on separate goroutines,
	// to one update at a time.
	updateMu sync.Mutex
}

var commands = []tele.Command{
	{Text: "start", Description: "Começar a conversa com o Helppy"},
	{Text: "menu", Description: "Abrir o menu principal"},
	{Text: "help", Description: "Como usar o bot"},
}

func NewBot(ctx context.Context, log *zap.Logger, s Settings, deps handlers.Deps) (*TBot, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("NewBot"))
	defer span.Close()

	pref := tele.Settings{
		URL:         s.URL,
		Token:       s.Token,
		Synchronous: true,
		Offline:     s.Offline,
		Poller:      &tele.LongPoller{Timeout: s.PollTimeout},
		OnError:     onError(log),
		Client:      http.TracedHttpClient(ctx, s.Token),
	}
	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("NewBot: %w", err)
	}

	// Use must come before Handle, telebot applies middleware at registration.
	bot.Use(
		middleware.TracingMiddleware(log.Named("tracingMiddleware")),
		middleware.RecoverMiddleware(log.Named("recoverMiddleware")),
		middleware.AutoRespondCallback,
	)

	if deps.Log == nil {
		deps.Log = log
	}
	if deps.Developer == nil {
		deps.Developer = bot
	}
	router := handlers.NewRouter(bot, log.Named("router"))
	handlers.Register(router, deps)
	log.Info("Bot handlers registered", zap.Strings("callbacks", router.IDs()))

	return &TBot{Bot: bot, Router: router, log: log}, nil
}

func onError(log *zap.Logger) func(error, tele.Context) {
	return func(err error, c tele.Context) {
		if c == nil {
			log.Error("Bot error", zap.Error(err))
			return
		}
		middleware.Logger(c, log).Error("Bot error",
			zap.Error(err),
			zap.String("errorType", fmt.Sprintf("%T", err)),
			zap.Any("update", c.Update()),
		)
	}
}

// Poll runs long polling until ctx is done.
func (b *TBot) Poll(ctx context.Context) error {
	if err := b.Bot.RemoveWebhook(); err != nil {
		b.log.Warn("Cannot remove webhook before polling", zap.Error(err))
	}
	b.publishCommands()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		b.log.Info("Stopping poller")
		b.Bot.Stop()
	}()

	b.log.Info("Polling for updates", zap.String("bot", b.Bot.Me.Username))
	b.Bot.Start()
	<-stopped
	return nil
}

// SetWebhook tells Telegram where to deliver updates. secret is echoed back by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (b *TBot) SetWebhook(url, secret string) error {
	b.publishCommands()
	hook := &tele.Webhook{
		Endpoint:       &tele.WebhookEndpoint{PublicURL: url},
		SecretToken:    secret,
		MaxConnections: 1,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	if err := b.Bot.SetWebhook(hook); err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}
	b.log.Info("Webhook set", zap.String("url", url))
	return nil
}

// ProcessUpdate handles one update synchronously. Concurrent callers are serialized.
func (b *TBot) ProcessUpdate(u tele.Update) {
	b.updateMu.Lock()
	defer b.updateMu.Unlock()
	b.Bot.ProcessUpdate(u)
}

func (b *TBot) publishCommands() {
	if err := b.Bot.SetCommands(commands); err != nil {
		b.log.Warn("Cannot publish bot commands", zap.Error(err))
	}
}
