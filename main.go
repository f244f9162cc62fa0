package main

import (
	"log"

	"github.com/SundayYogurt/school_service/config"
	"github.com/SundayYogurt/school_service/internal/api"
	"github.com/SundayYogurt/school_service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	//load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := api.StartServer(cfg); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
