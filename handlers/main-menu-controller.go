package handlers

import (
	"github.com/AndreyBeserra/Helppybot/handlers/middleware"
	markup "github.com/AndreyBeserra/Helppybot/lib/bot-markup"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	tele "gopkg.in/telebot.v3"
)

func MainMenuController(mux botMux, deps Deps) {
	mainMenuHandler := func(c tele.Context) error {
		_, span := tracer.Open(middleware.Ctx(c), tracer.Named("mainMenuHandler"))
		defer span.Close()
		return editOrSend(c,
			mainMenuText,
			tele.ModeMarkdown,
			deps.keyboard(markup.Options{}.
				With(AssistanceID, "🔧 Assistência Técnica").
				With(AboutID, "🤖 Sobre o Bot").
				With(TeamID, "👥 Conheça a Equipe")),
		)
	}
	mux.Handle(MainMenuID, mainMenuHandler)
	mux.Handle("/menu", mainMenuHandler)
}
