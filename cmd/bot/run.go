package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/a4tg/SDS-crm-bot/internal/adapter/httpapi"
	"github.com/a4tg/SDS-crm-bot/internal/adapter/telegram"
	"github.com/a4tg/SDS-crm-bot/internal/config"
	"github.com/a4tg/SDS-crm-bot/internal/infra/chart"
	"github.com/a4tg/SDS-crm-bot/internal/usecase"
	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

const chatQueueSize = 64

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	an, err := openAnalytics(cfg.Store.AnalyticsDSN)
	if err != nil {
		return err
	}
	defer an.close()

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Str("store", cfg.Store.Backend).Int("admins", len(cfg.Telegram.AdminIDs)).Msg("bot authorized")

	sender := telegram.NewSender(bot)
	scratch := usecase.NewScratchStore()
	engine := usecase.NewEngine(st.repos, usecase.NewDialog(cfg.Location()), scratch, sender, log.Named("engine"),
		usecase.WithAdmins(cfg.Telegram.AdminIDs),
		usecase.WithFunnel(usecase.NewFunnelUsecase(an.funnel), chart.NewBarRenderer()),
		usecase.WithBroadcast(usecase.NewBroadcastUsecase(st.repos.Users, sender, an.stats, log.Named("broadcast"))),
	)

	// очередь дорабатывается после сигнала, поэтому без отмены
	disp := usecase.NewDispatcher(cfg.App.Workers, chatQueueSize, engine.Handle, log.Named("dispatcher"))
	disp.Start(context.WithoutCancel(ctx))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(httpapi.NewHealthHandler(st.ping, scratch.Len, log.Named("http"))),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("health endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	telegram.NewHandler(bot, disp.Dispatch, log.Named("telegram")).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("health server shutdown")
	}
	disp.Stop()
	log.Info().Msg("bot stopped")
	return nil
}
