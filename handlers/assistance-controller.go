package handlers

import (
	"fmt"

	"github.com/AndreyBeserra/Helppybot/catalog"
	"github.com/AndreyBeserra/Helppybot/handlers/middleware"
	markup "github.com/AndreyBeserra/Helppybot/lib/bot-markup"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type resolvingMux interface {
	botMux
	Resolve(Resolver)
}

// AssistanceController serves the tutorial list and the tutorials themselves.
// Tutorial keys are looked up in the catalog on every tap.
func AssistanceController(mux resolvingMux, deps Deps) {
	mux.Handle(AssistanceID, func(c tele.Context) error {
		_, span := tracer.Open(middleware.Ctx(c), tracer.Named("assistanceHandler"))
		defer span.Close()
		var options markup.Options
		for _, t := range deps.Catalog.Catalog().Tutorials {
			options = options.With(t.Key, t.Title)
		}
		options = options.With(MainMenuID, "🔙 Voltar")
		return editOrSend(c, assistanceText, tele.ModeMarkdown, deps.keyboard(options))
	})

	mux.Resolve(func(id string) (tele.HandlerFunc, bool) {
		t, ok := deps.Catalog.Catalog().Tutorial(id)
		if !ok {
			return nil, false
		}
		return tutorialHandler(deps, t), true
	})
}

func tutorialHandler(deps Deps, t catalog.Tutorial) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, span := tracer.Open(middleware.Ctx(c), tracer.Named("tutorialHandler"))
		defer span.Close()
		middleware.Logger(c, deps.Log).Info("Showing tutorial", zap.String("tutorial", t.Key))

		if err := editOrSend(c, fmt.Sprintf("*%s*\n\n%s", t.Title, t.Steps), tele.ModeMarkdown); err != nil {
			return fmt.Errorf("tutorial %s: %w", t.Key, err)
		}
		if err := deps.Assets.SendFolder(ctx, c, t.Folder); err != nil {
			return fmt.Errorf("tutorial %s images: %w", t.Key, err)
		}
		return c.Send(moreHelpText, deps.keyboard(markup.Options{}.With(AssistanceID, "🔙 Voltar para Assistência")))
	}
}
