package logger

import (
	"context"
	"fmt"

	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the production logger. level is a zap level name such as "debug".
func New(ctx context.Context, level string) (*zap.Logger, error) {
	_, span := tracer.Open(ctx, tracer.Named("newLogger"))
	defer span.Close()

	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("newLogger: %w", err)
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.DisableCaller = false
	zapConfig.Level = atomicLevel
	log, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("newLogger: %w", err)
	}
	return log, nil
}

// WithDeveloperChat tees error-level entries into a telegram chat.
// A zero chat id leaves the logger untouched.
func WithDeveloperChat(log *zap.Logger, bot Bot, chatID int64) *zap.Logger {
	if chatID == 0 || bot == nil {
		return log
	}
	return log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, NewTelegramCore(zapcore.ErrorLevel, bot, chatID))
	}))
}
