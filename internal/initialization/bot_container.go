package initialization

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flowbaker/stickerzip/pkg/domain"
	"github.com/flowbaker/stickerzip/pkg/integrations/telegram"
	"github.com/flowbaker/stickerzip/pkg/metrics"
	"github.com/flowbaker/stickerzip/pkg/pipeline"

	"github.com/rs/zerolog/log"
)

type BotDependencies struct {
	TelegramClient *telegram.TelegramClient
	Metrics        *metrics.Collector
	Coordinator    *pipeline.Coordinator
	Dispatcher     *telegram.Dispatcher
}

type BotDependencyConfig struct {
	Config domain.BotConfig
	// Messenger replaces the Telegram client for replies when set, e.g. for
	// offline runs that write the archive to disk.
	Messenger  domain.Messenger
	HTTPClient *http.Client
}

type BotContainerOptions struct {
	ConfigFile string
}

type BotContainer struct {
	configManager domain.ConfigManager
}

func NewBotContainer(opts BotContainerOptions) (*BotContainer, error) {
	configManager, err := domain.NewConfigManager(domain.ConfigManagerOptions{
		ConfigFile: opts.ConfigFile,
	})
	if err != nil {
		return nil, err
	}

	return &BotContainer{
		configManager: configManager,
	}, nil
}

func (c *BotContainer) GetConfigManager() domain.ConfigManager {
	return c.configManager
}

// LoadConfig reads and validates the bot configuration.
func (c *BotContainer) LoadConfig(ctx context.Context) (domain.BotConfig, error) {
	config, err := c.configManager.GetConfig(ctx)
	if err != nil {
		return domain.BotConfig{}, err
	}

	if err := domain.ValidateBotConfig(config); err != nil {
		return domain.BotConfig{}, err
	}

	return config, nil
}

func (c *BotContainer) BuildBotDependencies(ctx context.Context, config BotDependencyConfig) (*BotDependencies, error) {
	log.Info().Msg("Building bot dependencies")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	telegramClient, err := telegram.NewTelegramClient(telegram.TelegramClientDependencies{
		Token:        config.Config.TelegramToken,
		APIEndpoint:  config.Config.APIEndpoint,
		FileEndpoint: config.Config.FileEndpoint,
		HTTPClient:   httpClient,
		Debug:        config.Config.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram client: %w", err)
	}

	messenger := config.Messenger
	if messenger == nil {
		messenger = telegramClient
	}

	collector := metrics.NewCollector()

	coordinator := pipeline.NewCoordinator(pipeline.CoordinatorDependencies{
		Source:              telegramClient,
		Messenger:           messenger,
		Metrics:             collector,
		ScratchDir:          config.Config.ScratchDir,
		DownloadConcurrency: config.Config.DownloadConcurrency,
	})

	dispatcher := telegram.NewDispatcher(telegram.DispatcherDependencies{
		Updates:       telegramClient,
		Handler:       coordinator,
		Messenger:     messenger,
		UpdateTimeout: config.Config.UpdateTimeout,
	})

	log.Info().Str("bot", telegramClient.Username()).Msg("Bot dependencies built successfully")

	return &BotDependencies{
		TelegramClient: telegramClient,
		Metrics:        collector,
		Coordinator:    coordinator,
		Dispatcher:     dispatcher,
	}, nil
}
