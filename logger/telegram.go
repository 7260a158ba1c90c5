package logger

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"
)

// Telegram refuses messages longer than this many characters.
const maxMessageLength = 4096

type Bot interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type telegramCore struct {
	level      zapcore.Level
	fields     []zapcore.Field
	bot        Bot
	receiverID int64
}

func (t telegramCore) Enabled(level zapcore.Level) bool {
	return t.level.Enabled(level)
}

func (t telegramCore) With(fields []zapcore.Field) zapcore.Core {
	newFields := append([]zapcore.Field{}, t.fields...)
	newFields = append(newFields, fields...)
	t.fields = newFields
	return t
}

func (t telegramCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if t.Enabled(entry.Level) {
		return ce.AddCore(entry, t)
	}
	return ce
}

var telegramMessageTmplt = template.Must(template.New("telegramMessageTmplt").
	Funcs(map[string]any{"Upper": strings.ToUpper}).
	Parse(`{{if .Entry.LoggerName}}[{{.Entry.LoggerName}}] {{end}}<b>{{Upper .Entry.Level.String}}</b> {{.Message}}
<pre>
{{range .Fields}} {{.Key}} = {{.Value}}
{{end}}</pre>
`))

type renderedField struct {
	Key   string
	Value string
}

// renderFields flattens zap fields into key/value text the way a map encoder sees them.
func renderFields(fields []zapcore.Field) []renderedField {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]renderedField, 0, len(keys))
	for _, k := range keys {
		out = append(out, renderedField{Key: k, Value: fmt.Sprint(enc.Fields[k])})
	}
	return out
}

// render executes the template, shortening the raw message and field values
// until the escaped HTML fits the Telegram limit. Cutting happens before
// escaping, so entities and the closing tags stay intact.
func render(entry zapcore.Entry, fields []renderedField, limit int) (string, error) {
	message := entry.Message
	for {
		var b strings.Builder
		err := telegramMessageTmplt.Execute(&b, map[string]any{"Entry": entry, "Message": message, "Fields": fields})
		if err != nil {
			return "", err
		}
		text := b.String()
		excess := utf8.RuneCountInString(text) - limit
		if excess <= 0 {
			return text, nil
		}
		if i := longestField(fields); i >= 0 {
			fields[i].Value = shorten(fields[i].Value, excess)
			continue
		}
		if utf8.RuneCountInString(message) > 1 {
			message = shorten(message, excess)
			continue
		}
		if len(fields) == 0 {
			return text, nil
		}
		fields = fields[:len(fields)-1]
	}
}

func longestField(fields []renderedField) int {
	best, bestLen := -1, 1
	for i, f := range fields {
		if n := utf8.RuneCountInString(f.Value); n > bestLen {
			best, bestLen = i, n
		}
	}
	return best
}

// shorten drops at least by runes from s, keeping a trailing ellipsis.
func shorten(s string, by int) string {
	return truncate(s, max(utf8.RuneCountInString(s)-by, 1))
}

func (t telegramCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	allFields := append(append([]zapcore.Field{}, t.fields...), fields...)
	text, err := render(entry, renderFields(allFields), maxMessageLength)
	if err != nil {
		return err
	}
	if _, err := t.bot.Send(tele.ChatID(t.receiverID), text, tele.ModeHTML); err != nil {
		return fmt.Errorf("message to developer %v: %w", text, err)
	}
	return nil
}

func (t telegramCore) Sync() error {
	return nil
}

func NewTelegramCore(level zapcore.Level, bot Bot, receiverID int64) zapcore.Core {
	return telegramCore{
		level:      level,
		fields:     nil,
		bot:        bot,
		receiverID: receiverID,
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
