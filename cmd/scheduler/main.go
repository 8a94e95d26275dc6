package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inboxkit/domainverify/internal/config"
	"github.com/inboxkit/domainverify/internal/db"
	"github.com/inboxkit/domainverify/internal/dnscheck"
	"github.com/inboxkit/domainverify/internal/metrics"
	"github.com/inboxkit/domainverify/internal/scheduler"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if !cfg.Scheduler.Enabled {
		log.Println("Scheduler disabled, exiting")
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	conn, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	repo := db.NewRepository(conn)
	collector := metrics.NewCollector()

	resolver := dnscheck.NewClient(dnscheck.ResolverConfig{
		Nameservers: cfg.DNS.Nameservers,
		Timeout:     cfg.DNS.QueryTimeout,
		Retries:     cfg.DNS.Retries,
	})
	verifier := dnscheck.NewVerifier(cfg.DNS, resolver, repo, collector, logger)

	sched := scheduler.NewScheduler(repo, verifier, collector, logger, cfg.Scheduler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutdown signal received")
		cancel()
	}()

	sched.Start(ctx)
	logger.Info("Scheduler exited")
}
