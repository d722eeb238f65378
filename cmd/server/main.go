package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/config"
	"github.com/tegar-arsya/hanadap-sub000/internal/infra"
	"github.com/tegar-arsya/hanadap-sub000/internal/repository"
	"github.com/tegar-arsya/hanadap-sub000/internal/router"
	"github.com/tegar-arsya/hanadap-sub000/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	nomor, err := infra.NewNomorGenerator(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SNOWFLAKE_NODE")
	}

	// Notification workers are wired here, at the composition root, so the
	// pool has the mailer and repository it needs.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, decision notices will be skipped")
	}
	dispatcher := worker.NewDispatcher(rdb)
	notifikasi := worker.NewNotifikasiWorker(
		repository.NewPermintaanRepository(db),
		mailer,
		cfg.PDFStoragePath,
		infra.GenerateSlipPermintaanPDF,
	)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.Handler{
		worker.JobNotifikasiKeputusan: notifikasi,
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{RDB: rdb, Mailer: mailer})

	r, err := router.New(cfg, router.Deps{
		DB:         db,
		Redis:      rdb,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Nomor:      nomor,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("hanadap stock service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
