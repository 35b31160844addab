package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowbaker/stickerzip/internal/initialization"
	"github.com/flowbaker/stickerzip/internal/server"
	"github.com/flowbaker/stickerzip/pkg/workspace"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot",
		Long:  `Start polling Telegram for messages and serve /health and /metrics on the configured HTTP address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			botContainer, err := newBotContainer(cmd)
			if err != nil {
				return err
			}

			return runStart(botContainer)
		},
	}

	return cmd
}

func runStart(botContainer *initialization.BotContainer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := botContainer.LoadConfig(ctx)
	if err != nil {
		return err
	}

	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("token", config.MaskedToken()).
		Str("scratch_dir", config.ScratchDir).
		Int("download_concurrency", config.DownloadConcurrency).
		Msg("Bot configuration loaded")

	if purged, err := workspace.PurgeStale(config.ScratchDir); err != nil {
		log.Warn().Err(err).Msg("Failed to purge stale workspaces")
	} else if len(purged) > 0 {
		log.Info().Int("count", len(purged)).Msg("Purged stale workspaces")
	}

	deps, err := botContainer.BuildBotDependencies(ctx, initialization.BotDependencyConfig{
		Config: config,
	})
	if err != nil {
		return err
	}

	if err := deps.TelegramClient.RegisterCommands(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to register bot commands")
	}

	httpServer := server.NewHTTPServer(server.HTTPServerDependencies{
		BotUsername:    deps.TelegramClient.Username(),
		MetricsHandler: deps.Metrics.Handler(),
	})

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return httpServer.Listen(config.HTTPAddress, fiber.ListenConfig{
			GracefulContext:       groupCtx,
			DisableStartupMessage: true,
		})
	})

	group.Go(func() error {
		err := deps.Dispatcher.Run(groupCtx)
		cancel()
		return err
	})

	log.Info().
		Str("bot", deps.TelegramClient.Username()).
		Str("http_address", config.HTTPAddress).
		Msg("Starting stickerzip")

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("Bot stopped with error")
		return err
	}

	log.Info().Msg("Bot stopped")
	return nil
}
