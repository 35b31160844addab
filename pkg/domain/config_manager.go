package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type BotConfig struct {
	TelegramToken string `mapstructure:"telegram_token"`
	APIEndpoint   string `mapstructure:"api_endpoint"`
	FileEndpoint  string `mapstructure:"file_endpoint"`

	ScratchDir          string `mapstructure:"scratch_dir"`
	DownloadConcurrency int    `mapstructure:"download_concurrency"`
	UpdateTimeout       int    `mapstructure:"update_timeout"`

	HTTPAddress string `mapstructure:"http_address"`
	Debug       bool   `mapstructure:"debug"`
}

func (c BotConfig) UpdateTimeoutDuration() time.Duration {
	return time.Duration(c.UpdateTimeout) * time.Second
}

// MaskedToken returns the bot id part of the token, which is safe to print.
func (c BotConfig) MaskedToken() string {
	if c.TelegramToken == "" {
		return ""
	}

	botID, _, found := strings.Cut(c.TelegramToken, ":")
	if !found {
		return "***"
	}

	return botID + ":***"
}

type ConfigManager interface {
	GetConfig(ctx context.Context) (BotConfig, error)
	ConfigFileUsed() string
}

type ConfigManagerOptions struct {
	// ConfigFile overrides the config search paths when set.
	ConfigFile string
}

type configManager struct {
	viper *viper.Viper
}

func NewConfigManager(opts ConfigManagerOptions) (ConfigManager, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("STICKERZIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string][]string{
		"telegram_token":       {"TELEGRAM_BOT_TOKEN", "STICKERZIP_TELEGRAM_TOKEN"},
		"api_endpoint":         {"STICKERZIP_API_ENDPOINT"},
		"file_endpoint":        {"STICKERZIP_FILE_ENDPOINT"},
		"scratch_dir":          {"STICKERZIP_SCRATCH_DIR"},
		"download_concurrency": {"STICKERZIP_DOWNLOAD_CONCURRENCY"},
		"update_timeout":       {"STICKERZIP_UPDATE_TIMEOUT"},
		"http_address":         {"STICKERZIP_HTTP_ADDRESS"},
		"debug":                {"STICKERZIP_DEBUG"},
	}

	for configKey, envVars := range envMappings {
		args := append([]string{configKey}, envVars...)
		if err := v.BindEnv(args...); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variables %v for %s", envVars, configKey)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.stickerzip")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Debug().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	return &configManager{
		viper: v,
	}, nil
}

func (m *configManager) GetConfig(ctx context.Context) (BotConfig, error) {
	var config BotConfig
	if err := m.viper.Unmarshal(&config); err != nil {
		return BotConfig{}, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.DownloadConcurrency < 1 {
		config.DownloadConcurrency = 1
	}

	return config, nil
}

func (m *configManager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// ValidateBotConfig reports every missing required setting at once.
func ValidateBotConfig(config BotConfig) error {
	var missing []string

	if config.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}

	if config.ScratchDir == "" {
		missing = append(missing, "STICKERZIP_SCRATCH_DIR")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if config.UpdateTimeout < 0 {
		return fmt.Errorf("update_timeout must not be negative, got %d", config.UpdateTimeout)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_endpoint", tgbotapi.APIEndpoint)
	v.SetDefault("file_endpoint", tgbotapi.FileEndpoint)
	v.SetDefault("scratch_dir", filepath.Join(os.TempDir(), "stickerzip"))
	v.SetDefault("download_concurrency", 1)
	v.SetDefault("update_timeout", 60)
	v.SetDefault("http_address", ":8081")
	v.SetDefault("debug", false)
}
