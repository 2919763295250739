package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"

	"github.com/vsc-eco/vsc-fixed-swap/services/devhost"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (optional)")
		listen     = flag.String("listen", "", "Override listen address, e.g. :8081")
	)
	flag.Parse()

	cfg, err := devhost.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := devhost.NewService(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to start devhost")
	}

	logger.WithFields(logrus.Fields{
		"listen": cfg.Listen,
		"store":  cfg.Store.Driver,
		"dust":   cfg.Contract.Dust,
	}).Info("starting fixed-swap devhost")

	if err := svc.Start(ctx); err != nil {
		logger.WithError(err).Fatal("devhost stopped with error")
	}
	logger.Info("devhost stopped")
}
