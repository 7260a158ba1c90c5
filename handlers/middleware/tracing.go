package middleware

import (
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// TracingMiddleware opens the root span of an update and tags its logger
// with a trace id.
func TracingMiddleware(log *zap.Logger) tele.MiddlewareFunc {
	return func(hf tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			ctx, span := tracer.Open(Ctx(c), tracer.Named("Update"))
			updateLog := log.With(
				zap.String("trace_id", uuid.NewString()),
				zap.Int("update_id", c.Update().ID),
			)
			if chat := c.Chat(); chat != nil {
				updateLog = updateLog.With(zap.Int64("chat_id", chat.ID))
			}
			c.Set(ctxKey, ctx)
			c.Set(loggerKey, updateLog)

			err := hf(c)
			span.Close()

			updateLog.Debug("Update handled", zap.Duration("took", span.Duration()))
			if ce := updateLog.Check(zap.DebugLevel, "Update trace"); ce != nil {
				if trace, traceErr := span.PrintTrace(); traceErr == nil {
					ce.Write(zap.ByteString("trace", trace))
				}
			}
			return err
		}
	}
}
