package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/flowbaker/stickerzip/internal/initialization"
	"github.com/flowbaker/stickerzip/internal/version"

	"github.com/spf13/cobra"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current configuration",
		Long:  `Display the resolved configuration (with the bot token masked) and build information.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			botContainer, err := newBotContainer(cmd)
			if err != nil {
				return err
			}

			return runStatus(botContainer, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runStatus(botContainer *initialization.BotContainer, out io.Writer) error {
	configManager := botContainer.GetConfigManager()

	config, err := configManager.GetConfig(context.Background())
	if err != nil {
		return err
	}

	info := version.Get()
	fmt.Fprintf(out, "stickerzip %s (%s, %s)\n", version.GetShortVersion(), info.GoVersion, info.Platform)

	configFile := configManager.ConfigFileUsed()
	if configFile == "" {
		configFile = "none (environment and defaults)"
	}
	fmt.Fprintf(out, "   Config file: %s\n", configFile)

	if config.TelegramToken != "" {
		fmt.Fprintf(out, "   Bot token: %s\n", config.MaskedToken())
	} else {
		fmt.Fprintln(out, "   Bot token: not set (TELEGRAM_BOT_TOKEN)")
	}

	fmt.Fprintf(out, "   API endpoint: %s\n", config.APIEndpoint)
	fmt.Fprintf(out, "   Scratch dir: %s\n", config.ScratchDir)
	fmt.Fprintf(out, "   Download concurrency: %d\n", config.DownloadConcurrency)
	fmt.Fprintf(out, "   HTTP address: %s\n", config.HTTPAddress)

	return nil
}
