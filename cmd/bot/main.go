package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"career-mentor/internal/app"
	"career-mentor/internal/config"
	"career-mentor/internal/logging"
	"career-mentor/internal/scheduler"
	"career-mentor/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Err(err).Msg(".env file not found")
	}

	cfg := config.New()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init application")
	}
	defer svc.Close()

	bot, err := telegram.New(cfg.TelegramBotToken, svc, cfg.AdminUserID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	sched := scheduler.New()
	if err := sched.Add("daily_report", cfg.ReportCron, func(context.Context) error {
		report, err := svc.DailyReport(time.Now().UTC())
		if err != nil {
			return err
		}
		bot.NotifyAdmin(report.GenerateReportSummary())
		return nil
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule report")
	}
	if err := sched.Add("rate_limit_sweep", cfg.SweepCron, func(context.Context) error {
		if n := svc.Sweep(); n > 0 {
			log.Debug().Int("identities", n).Msg("idle rate-limit windows dropped")
		}
		return nil
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule sweep")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	g.Go(func() error {
		bot.Start(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("shutdown with error")
	}
	log.Info().Msg("bye")
}
