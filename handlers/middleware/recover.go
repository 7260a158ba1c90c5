package middleware

import (
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// RecoverMiddleware turns a handler panic into an error log and a returned error.
func RecoverMiddleware(log *zap.Logger) tele.MiddlewareFunc {
	return func(hf tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					Logger(c, log).WithOptions(zap.AddCallerSkip(3)).Error("Panic in handler", zap.Any("panicObj", r))
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return hf(c)
		}
	}
}
