package markup

import tele "gopkg.in/telebot.v3"

const DefaultPerRow = 2

// Option is one button of a menu: the callback id and the label shown.
type Option struct {
	ID    string
	Label string
}

// Options keeps buttons in the order they were declared.
type Options []Option

func (o Options) With(id, label string) Options {
	return append(o, Option{ID: id, Label: label})
}

// Keyboard lays the options out perRow buttons per row; the last row may be shorter.
func Keyboard(options Options, perRow int) *tele.ReplyMarkup {
	if perRow <= 0 {
		perRow = DefaultPerRow
	}
	var rows []tele.Row
	for start := 0; start < len(options); start += perRow {
		end := min(start+perRow, len(options))
		row := make(tele.Row, 0, end-start)
		for _, opt := range options[start:end] {
			row = append(row, Data(opt.Label, opt.ID))
		}
		rows = append(rows, row)
	}
	return InlineMarkup(rows...)
}
