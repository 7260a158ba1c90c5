package markup

import (
	"strings"

	tele "gopkg.in/telebot.v3"
)

func Markup() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{}
}

func InlineMarkup(rows ...tele.Row) *tele.ReplyMarkup {
	m := Markup()
	m.Inline(rows...)
	return m
}

func Row(many ...tele.Btn) tele.Row {
	return many
}

// Data is a callback button. unique is what the router matches on.
func Data(text, unique string, data ...string) tele.Btn {
	return tele.Btn{
		Unique: unique,
		Text:   text,
		Data:   strings.Join(data, "|"),
	}
}
