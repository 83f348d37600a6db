package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/veritrack/platform/pkg/common/config"
	"github.com/veritrack/platform/pkg/common/kafka"
	"github.com/veritrack/platform/pkg/common/logger"
	"github.com/veritrack/platform/pkg/common/models"
)

// alert-feed tails the alert event topic and logs every lifecycle event.
// Useful when wiring up or debugging downstream notification consumers.
func main() {
	logger.Init()
	cfg := config.Load()

	consumer := kafka.NewConsumer(cfg.AlertEventTopic, cfg.KafkaGroupID+"-feed")
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	logger.Log.WithField("topic", cfg.AlertEventTopic).Info("Tailing alert events")

	err := consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
		logger.Log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
			"data":       event.Data,
		}).Info("alert event")
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.Log.WithError(err).Error("consumer stopped")
	}
}
