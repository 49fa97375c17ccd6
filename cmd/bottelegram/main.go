// BotTelegram - Webhook-driven Telegram AI bot
// License: MIT
//
// Copyright (c) 2026 BotTelegram contributors

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ngx29/BotTelegram/pkg/bot"
	"github.com/ngx29/BotTelegram/pkg/config"
	"github.com/ngx29/BotTelegram/pkg/logger"
	"github.com/ngx29/BotTelegram/pkg/media"
	"github.com/ngx29/BotTelegram/pkg/providers"
	"github.com/ngx29/BotTelegram/pkg/server"
	"github.com/ngx29/BotTelegram/pkg/speech"
	"github.com/ngx29/BotTelegram/pkg/telegram"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to optional JSON config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bottelegram v%s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, err := range errs {
			fmt.Printf("Config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.FileEnabled {
		if err := logger.EnableFile(cfg.LogFilePath(), cfg.Logging.MaxSizeMB, cfg.Logging.RetentionDays); err != nil {
			fmt.Printf("Warning: file logging disabled: %v\n", err)
		}
	}

	workspace := media.NewWorkspace(cfg.MediaDir())
	if err := workspace.Ensure(); err != nil {
		fmt.Printf("Error preparing media workspace: %v\n", err)
		os.Exit(1)
	}

	sender, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		fmt.Printf("Error creating telegram client: %v\n", err)
		os.Exit(1)
	}

	dispatcher := bot.NewDispatcher(
		sender,
		providers.NewChatClient(cfg.OpenAI),
		providers.NewImageClient(cfg.OpenAI),
		speech.NewSynthesizer(workspace, cfg.Speech.Language),
		workspace,
	)

	srv := server.NewServer(cfg.Webhook, dispatcher)
	janitor := media.NewJanitor(
		workspace,
		cfg.Media.SweepSchedule,
		time.Duration(cfg.Media.MaxAgeMinutes)*time.Minute,
		cfg.Media.MaxFiles,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("✓ Webhook listening on %s:%d\n", cfg.Webhook.Host, cfg.Webhook.Port)
	if cfg.Webhook.Secret != "" {
		fmt.Println("✓ Secret path routing enabled")
	}
	fmt.Println("Press Ctrl+C to stop.")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return srv.Run(groupCtx) })
	group.Go(func() error { return janitor.Run(groupCtx) })

	if err := group.Wait(); err != nil {
		logger.FatalCF("main", "Runtime failure", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	logger.InfoC("main", "Shutdown complete")
}
