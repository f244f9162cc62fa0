package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/SundayYogurt/school_service/config"
	"github.com/SundayYogurt/school_service/infra/queue"
	"github.com/SundayYogurt/school_service/internal/api"
	"github.com/SundayYogurt/school_service/internal/api/events"
	"github.com/SundayYogurt/school_service/internal/services"
	"github.com/SundayYogurt/school_service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// ---------- Load Config ----------
	cfg := config.LoadConfig()
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.WithModule("mail-svc")
	log.Info("mail service starting",
		zap.String("broker", cfg.KafkaBroker),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group_id", cfg.KafkaGroupID),
	)

	// ---------- Init Service / Handler ----------
	mailService := services.NewMailService(api.SMTPSettings(cfg))
	handler := events.NewMailHandler(mailService)

	// ---------- Init Kafka Consumer ----------
	consumer := queue.NewKafkaConsumer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaGroupID,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
		handler,
	)

	// ---------- Start Listening ----------
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("listening for mail events")
	if err := consumer.Listen(ctx); err != nil {
		log.Error("consumer stopped", zap.Error(err))
	}
}
