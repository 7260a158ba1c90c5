package middleware

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	ctxKey    = "helppy.ctx"
	loggerKey = "helppy.logger"
)

// Ctx returns the context.Context attached to the update by TracingMiddleware.
func Ctx(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// Logger returns the update-scoped logger, or fallback outside of TracingMiddleware.
func Logger(c tele.Context, fallback *zap.Logger) *zap.Logger {
	if log, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return log
	}
	return fallback
}
