package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/flowbaker/stickerzip/internal/initialization"
	"github.com/flowbaker/stickerzip/pkg/workspace"

	"github.com/spf13/cobra"
)

func NewCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover request workspaces",
		Long:  `Remove request workspaces and archives left in the scratch directory by a process that did not shut down cleanly. Do not run while the bot is serving requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			botContainer, err := newBotContainer(cmd)
			if err != nil {
				return err
			}

			return runClean(botContainer, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runClean(botContainer *initialization.BotContainer, out io.Writer) error {
	config, err := botContainer.GetConfigManager().GetConfig(context.Background())
	if err != nil {
		return err
	}

	purged, err := workspace.PurgeStale(config.ScratchDir)
	if err != nil {
		return fmt.Errorf("failed to clean scratch directory: %w", err)
	}

	fmt.Fprintf(out, "✅ Removed %d workspace(s) from %s\n", len(purged), config.ScratchDir)
	return nil
}
