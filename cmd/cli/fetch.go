package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flowbaker/stickerzip/internal/initialization"
	"github.com/flowbaker/stickerzip/pkg/domain"
	"github.com/flowbaker/stickerzip/pkg/pipeline"
	"github.com/flowbaker/stickerzip/pkg/resolver"

	"github.com/spf13/cobra"
)

func NewFetchCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "fetch <sticker set name or link>",
		Short: "Download a sticker set to a local zip archive",
		Long:  `Run the same pipeline the bot uses and copy the resulting archive to a local directory instead of sending it to a chat.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			botContainer, err := newBotContainer(cmd)
			if err != nil {
				return err
			}

			return runFetch(botContainer, args[0], outputDir, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory the archive is written to")

	return cmd
}

func runFetch(botContainer *initialization.BotContainer, reference, outputDir string, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := botContainer.LoadConfig(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	deps, err := botContainer.BuildBotDependencies(ctx, initialization.BotDependencyConfig{
		Config:    config,
		Messenger: newLocalMessenger(outputDir, out),
	})
	if err != nil {
		return err
	}

	return deps.Coordinator.Handle(ctx, pipeline.Request{
		Input: fetchInput(reference),
	})
}

// fetchInput treats share links like pasted text and anything else like a
// /download argument.
func fetchInput(reference string) resolver.Input {
	if _, ok := resolver.ParseShareLink(reference); ok {
		return resolver.TextInput(reference)
	}

	return resolver.CommandInput(reference)
}

// localMessenger prints replies and copies delivered archives to a directory.
type localMessenger struct {
	outputDir string
	out       io.Writer
}

var _ domain.Messenger = (*localMessenger)(nil)

func newLocalMessenger(outputDir string, out io.Writer) *localMessenger {
	return &localMessenger{
		outputDir: outputDir,
		out:       out,
	}
}

func (m *localMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := fmt.Fprintln(m.out, text)
	return err
}

func (m *localMessenger) SendDocument(ctx context.Context, chatID int64, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer src.Close()

	destPath := filepath.Join(m.outputDir, filepath.Base(path))

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy archive: %w", err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", destPath, err)
	}

	_, err = fmt.Fprintf(m.out, "Saved %s\n", destPath)
	return err
}
