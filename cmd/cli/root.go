package cli

import (
	"fmt"
	"os"

	"github.com/flowbaker/stickerzip/internal/initialization"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stickerzip",
		Short: "Telegram sticker set downloader",
		Long: `stickerzip is a Telegram bot that downloads a sticker or emoji set and
sends it back to the chat as a single zip archive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ./config.yaml or $HOME/.stickerzip/config.yaml)")

	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewFetchCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewCleanCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newBotContainer(cmd *cobra.Command) (*initialization.BotContainer, error) {
	configFile, _ := cmd.Flags().GetString("config")

	botContainer, err := initialization.NewBotContainer(initialization.BotContainerOptions{
		ConfigFile: configFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot container: %w", err)
	}

	return botContainer, nil
}
