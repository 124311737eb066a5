package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Nazarious-ucu/weather-screen/internal/app"
	"github.com/Nazarious-ucu/weather-screen/internal/config"
	metricsSvc "github.com/Nazarious-ucu/weather-screen/internal/services/metrics"
	"github.com/Nazarious-ucu/weather-screen/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	l := logger.NewLogger(cfg.LogsPath, cfg.ServiceName)
	m := metricsSvc.NewMetrics(cfg.ServiceName)

	application := app.New(*cfg, l, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		l.Error().Err(err).Msg("application failed to run")
		stop()
		os.Exit(1)
	}
}
