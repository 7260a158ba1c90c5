package handlers

import (
	"fmt"

	"github.com/AndreyBeserra/Helppybot/handlers/middleware"
	markup "github.com/AndreyBeserra/Helppybot/lib/bot-markup"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	useMenuText         = "🤖 Eu funciono pelos botões do menu. Toque abaixo para começar!"
	feedbackThanksText  = "✅ Obrigado! Sua mensagem foi enviada para a equipe Help-U."
	feedbackFailedText  = "😕 Não consegui enviar sua mensagem agora. Tente novamente mais tarde."
	replyNoOriginalText = "Não encontrei o autor da mensagem original. Responda a uma mensagem encaminhada."
)

type developerBot interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Forward(to tele.Recipient, msg tele.Editable, opts ...interface{}) (*tele.Message, error)
}

// FeedbackController handles free text. Users are pointed back to the menu and,
// when a developer chat is configured, their message is forwarded there.
// Replies in the developer chat to a forwarded message go back to its author.
func FeedbackController(mux botMux, deps Deps) {
	mux.Handle(tele.OnText, func(c tele.Context) error {
		_, span := tracer.Open(middleware.Ctx(c), tracer.Named("feedbackHandler"))
		defer span.Close()

		log := middleware.Logger(c, deps.Log)
		chat := c.Chat()
		if chat == nil {
			return nil
		}
		if deps.Developer != nil && deps.DeveloperChatID != 0 && chat.ID == deps.DeveloperChatID {
			return replyFromDeveloper(c, deps, log)
		}
		if chat.Type != tele.ChatPrivate {
			return nil
		}

		menu := deps.keyboard(markup.Options{}.With(MainMenuID, "🎛️ Menu Principal"))
		if deps.Developer == nil || deps.DeveloperChatID == 0 {
			return c.Send(useMenuText, menu)
		}
		if err := forwardToDeveloper(c, deps); err != nil {
			log.Error("Cannot forward message to developer", zap.Error(err))
			return c.Send(feedbackFailedText, menu)
		}
		return c.Send(feedbackThanksText, menu)
	})
}

func forwardToDeveloper(c tele.Context, deps Deps) error {
	to := tele.ChatID(deps.DeveloperChatID)
	header := fmt.Sprintf("📨 Mensagem de [%d]", c.Chat().ID)
	if sender := c.Sender(); sender != nil {
		header = fmt.Sprintf("📨 Mensagem de [%d]: %s %s @%s", sender.ID, sender.FirstName, sender.LastName, sender.Username)
	}
	if _, err := deps.Developer.Send(to, header); err != nil {
		return fmt.Errorf("header for developer: %w", err)
	}
	if _, err := deps.Developer.Forward(to, c.Message()); err != nil {
		return fmt.Errorf("forwarding to developer: %w", err)
	}
	return nil
}

func replyFromDeveloper(c tele.Context, deps Deps, log *zap.Logger) error {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.OriginalSender == nil {
		return c.Send(replyNoOriginalText)
	}
	author := msg.ReplyTo.OriginalSender
	if _, err := deps.Developer.Send(author, msg.Text); err != nil {
		log.Error("Cannot deliver developer reply", zap.Int64("user_id", author.ID), zap.Error(err))
		return err
	}
	return nil
}
