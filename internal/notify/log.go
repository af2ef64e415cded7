package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log records every notification in the structured log.
type Log struct {
	Logger *zap.Logger
}

func NewLog(l *zap.Logger) *Log { return &Log{Logger: l} }

func (l *Log) Send(ctx context.Context, title, text string) error {
	l.Logger.Info("notification", zap.String("title", title), zap.String("text", text))
	return nil
}
