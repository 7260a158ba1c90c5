package handlers

import (
	"github.com/AndreyBeserra/Helppybot/handlers/middleware"
	markup "github.com/AndreyBeserra/Helppybot/lib/bot-markup"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	tele "gopkg.in/telebot.v3"
)

func AboutController(mux botMux, deps Deps) {
	mux.Handle(AboutID, func(c tele.Context) error {
		_, span := tracer.Open(middleware.Ctx(c), tracer.Named("aboutHandler"))
		defer span.Close()
		if err := editOrSend(c, deps.Catalog.Catalog().About, tele.ModeMarkdown); err != nil {
			return err
		}
		return c.Send(learnMoreText, deps.keyboard(markup.Options{}.
			With(TeamID, "👥 Ver Equipe").
			With(MainMenuID, "🔙 Menu Principal")))
	})
}
