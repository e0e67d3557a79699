package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/scribeflow/scribeflow/internal/chunker"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/httpapi"
	"github.com/scribeflow/scribeflow/internal/jobs"
	"github.com/scribeflow/scribeflow/internal/media"
	"github.com/scribeflow/scribeflow/internal/persistence"
	"github.com/scribeflow/scribeflow/internal/pipeline"
	"github.com/scribeflow/scribeflow/internal/summarizer"
	"github.com/scribeflow/scribeflow/internal/transcriber"
	"github.com/scribeflow/scribeflow/internal/watcher"
	"github.com/scribeflow/scribeflow/pkg/executor"
	"github.com/scribeflow/scribeflow/pkg/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	if cfg.Log.File != "" {
		fileLogger, err := log.NewFileLogger(cfg.Log.File, log.ParseLevel(cfg.Log.Level))
		if err != nil {
			log.Fatal("Failed to open log file %s: %v", cfg.Log.File, err)
		}
		defer fileLogger.Close()
		log.SetLogger(fileLogger.Logger)
	} else {
		log.InitLogger(log.ParseLevel(cfg.Log.Level))
	}

	store, err := persistence.NewSQLiteStore(cfg.DB.Path)
	if err != nil {
		log.Fatal("Failed to open job store: %v", err)
	}
	defer store.Close()

	transcribeClient, err := transcriber.NewClient(&cfg.Transcriber)
	if err != nil {
		log.Fatal("Failed to create transcription client: %v", err)
	}
	summarizeClient, err := summarizer.NewClient(&cfg.Summarizer)
	if err != nil {
		log.Fatal("Failed to create summarization client: %v", err)
	}

	ffmpeg := media.NewFFmpeg(executor.New())
	pipe := pipeline.New(
		chunker.New(ffmpeg, ffmpeg, int64(cfg.Chunk.CeilingMB)*1024*1024),
		transcriber.NewOrchestrator(transcribeClient),
		summarizeClient,
	)

	queue := jobs.NewQueue(cfg.Queue.Workers, store)
	queue.Start(pipe.Execute)

	sweeper := pipeline.NewSweeper(cfg.HTTP.UploadDir, time.Duration(cfg.Sweep.MaxAgeHours)*time.Hour)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Sweep.CronExpr, sweeper.Sweep); err != nil {
		log.Fatal("Invalid sweep schedule %q: %v", cfg.Sweep.CronExpr, err)
	}
	scheduler.Start()

	server := httpapi.NewServer(queue, cfg.HTTP.UploadDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Watch.InboxDir != "" {
		inbox, err := watcher.New(cfg.Watch.InboxDir, queue, 500*time.Millisecond)
		if err != nil {
			log.Fatal("Failed to start inbox watcher: %v", err)
		}
		g.Go(func() error {
			defer inbox.Stop()
			if err := inbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Shutdown with error: %v", err)
	}

	<-scheduler.Stop().Done()
	queue.Stop()
	log.Info("Goodbye")
}
