package handlers

import (
	"errors"
	"fmt"

	"github.com/AndreyBeserra/Helppybot/assets"
	"github.com/AndreyBeserra/Helppybot/handlers/middleware"
	markup "github.com/AndreyBeserra/Helppybot/lib/bot-markup"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func TeamController(mux botMux, deps Deps) {
	mux.Handle(TeamID, func(c tele.Context) error {
		ctx, span := tracer.Open(middleware.Ctx(c), tracer.Named("teamHandler"))
		defer span.Close()
		cat := deps.Catalog.Catalog()

		err := func() error {
			if err := editOrSend(c, cat.TeamSummary, tele.ModeMarkdown); err != nil {
				return err
			}
			if err := deps.Assets.SendTeam(ctx, c, cat.TeamFolder, cat.Team); err != nil {
				return err
			}
			return c.Send(whatNextText, deps.keyboard(markup.Options{}.
				With(AboutID, "🤖 Sobre o Bot").
				With(MainMenuID, "🔙 Menu Principal")))
		}()
		switch {
		case errors.Is(err, assets.ErrTeamFolderMissing):
			return nil
		case err != nil:
			middleware.Logger(c, deps.Log).Error("Cannot show team", zap.Error(err))
			if sendErr := c.Send(technicalDifficulties); sendErr != nil {
				return fmt.Errorf("team: %w", errors.Join(err, sendErr))
			}
		}
		return nil
	})
}
