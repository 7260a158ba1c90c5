package handlers

import (
	"context"
	"errors"

	"github.com/AndreyBeserra/Helppybot/assets"
	"github.com/AndreyBeserra/Helppybot/catalog"
	markup "github.com/AndreyBeserra/Helppybot/lib/bot-markup"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Button ids. Tutorial keys share the same namespace and may not reuse them.
const (
	MainMenuID   = "menu_principal"
	AssistanceID = "assistencia"
	AboutID      = "sobre_bot"
	TeamID       = "equipe"
)

const (
	welcomeText = "🖐️ Olá! Eu sou o *Helppy*, seu assistente técnico pessoal.\n\n" +
		"Estou aqui para te ajudar com problemas no seu celular!"
	mainMenuText          = "🎛️ *Menu Principal*: Escolha uma opção abaixo"
	assistanceText        = "🔧 *Assistência Técnica*: Selecione o problema"
	moreHelpText          = "Precisa de mais ajuda?"
	learnMoreText         = "Saiba mais:"
	whatNextText          = "O que gostaria de fazer agora?"
	technicalDifficulties = "😕 Estamos com dificuldades técnicas. Por favor, tente novamente mais tarde."
)

// ReservedIDs are the fixed menu ids; catalog validation keeps tutorials off them.
func ReservedIDs() []string {
	return []string{MainMenuID, AssistanceID, AboutID, TeamID}
}

type catalogSource interface {
	Catalog() *catalog.Catalog
}

type assetSender interface {
	SendFolder(ctx context.Context, s assets.Sender, folder string) error
	SendTeam(ctx context.Context, s assets.Sender, folder string, members []catalog.Member) error
}

// Deps is what the menu controllers share.
type Deps struct {
	Log     *zap.Logger
	Catalog catalogSource
	Assets  assetSender
	PerRow  int

	// Developer receives user feedback. Zero DeveloperChatID turns forwarding off.
	Developer       developerBot
	DeveloperChatID int64
}

func (d Deps) keyboard(options markup.Options) *tele.ReplyMarkup {
	return markup.Keyboard(options, d.PerRow)
}

// editOrSend edits the message under a tapped button, or sends a new one for commands.
func editOrSend(c tele.Context, what interface{}, opts ...interface{}) error {
	err := c.EditOrSend(what, opts...)
	if errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	return err
}

// Register wires every menu screen onto the router.
func Register(r *Router, deps Deps) {
	StartController(r, deps)
	MainMenuController(r, deps)
	AssistanceController(r, deps)
	AboutController(r, deps)
	TeamController(r, deps)
	FeedbackController(r, deps)
}
