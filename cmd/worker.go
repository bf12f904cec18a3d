package cmd

import (
	"context"

	"cinebook/internal/notification"

	"go.uber.org/zap"
)

// NotificationWorker drains the notification queue into mail until ctx is
// cancelled.
func NotificationWorker(ctx context.Context, url string, mail notification.Notifier, logger *zap.Logger) error {
	logger.Info("Starting notification worker", zap.String("queue", notification.QueueName))
	return notification.NewConsumer(url, mail, logger).Run(ctx)
}
