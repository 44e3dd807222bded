package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/limaJavier/evotimetabling/internal/config"
	"github.com/limaJavier/evotimetabling/pkg/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer logger.Sync()

	defaults, err := cfg.GeneticConfig()
	if err != nil {
		logger.Fatal("invalid engine parameters", zap.Error(err))
	}

	// The database is optional; without it runs are not persisted
	var repository *storage.Repository
	if cfg.Database.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		dbpool, err := storage.Open(ctx, cfg.Database.DSN)
		cancel()
		if err != nil {
			logger.Fatal("cannot connect to the database", zap.Error(err))
		}
		defer dbpool.Close()

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		queryTimeout, transactionTimeout := cfg.Database.Timeouts()
		repository = storage.NewRepository(dbpool, queryTimeout, transactionTimeout)
		if err := repository.CreateSchema(context.Background()); err != nil {
			logger.Fatal("cannot create database schema", zap.Error(err))
		}
	}

	handler := NewHandler(defaults, repository, time.Duration(cfg.Server.RunTimeout)*time.Second, logger)
	handler.RegisterRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     zap.NewStdLog(logger),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("cannot start server", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("cannot shut down server", zap.Error(err))
	}
	logger.Info("server stopped")
}
