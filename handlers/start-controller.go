package handlers

import (
	"github.com/AndreyBeserra/Helppybot/handlers/middleware"
	markup "github.com/AndreyBeserra/Helppybot/lib/bot-markup"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	tele "gopkg.in/telebot.v3"
)

func StartController(mux botMux, deps Deps) {
	startHandler := func(c tele.Context) error {
		_, span := tracer.Open(middleware.Ctx(c), tracer.Named("startHandler"))
		defer span.Close()
		return c.Send(
			welcomeText,
			tele.ModeMarkdown,
			deps.keyboard(markup.Options{}.With(MainMenuID, "👉 Começar")),
		)
	}
	mux.Handle("/start", startHandler)
	mux.Handle("/help", startHandler)
}
