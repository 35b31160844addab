// Package materializer streams the items of a collection into a workspace.
package materializer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/flowbaker/stickerzip/pkg/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Materializer struct {
	source      domain.CollectionSource
	concurrency int
	logger      zerolog.Logger
}

type MaterializerDependencies struct {
	Source domain.CollectionSource
	// Concurrency bounds in-flight downloads. Values below 2 download one item
	// at a time in collection order.
	Concurrency int
	Logger      *zerolog.Logger
}

func NewMaterializer(deps MaterializerDependencies) *Materializer {
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	return &Materializer{
		source:      deps.Source,
		concurrency: deps.Concurrency,
		logger:      logger,
	}
}

// Materialize downloads every item below workspaceDir. The first failure
// aborts the whole run; files already written are left for the caller to
// discard. The returned count is the number of items fully written.
func (m *Materializer) Materialize(ctx context.Context, workspaceDir string, items []domain.ItemDescriptor) (int, error) {
	if m.concurrency <= 1 {
		for i, item := range items {
			if err := m.materializeItem(ctx, workspaceDir, item); err != nil {
				return i, fmt.Errorf("%w: item %d of %d: %w", domain.ErrIOFailure, i+1, len(items), err)
			}
		}
		return len(items), nil
	}

	var written atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := m.materializeItem(gctx, workspaceDir, item); err != nil {
				return fmt.Errorf("item %d of %d: %w", i+1, len(items), err)
			}
			written.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(written.Load()), fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}

	if err := ctx.Err(); err != nil {
		return int(written.Load()), fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}

	return len(items), nil
}

func (m *Materializer) materializeItem(ctx context.Context, workspaceDir string, item domain.ItemDescriptor) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	locator, err := m.source.ResolveLocator(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to resolve file %s: %w", item.FileID, err)
	}

	destination, err := destinationPath(workspaceDir, locator.RelativePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", locator.RelativePath, err)
	}

	file, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", locator.RelativePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", locator.RelativePath, closeErr)
		}
	}()

	written, err := m.source.Download(ctx, locator, file)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", locator.RelativePath, err)
	}

	m.logger.Debug().
		Str("file_id", item.FileID).
		Str("path", destination).
		Int64("bytes", written).
		Msg("Sticker downloaded")

	return nil
}

var errNonLocalPath = errors.New("file path escapes the workspace")

func destinationPath(workspaceDir, relativePath string) (string, error) {
	localPath := filepath.FromSlash(relativePath)
	if relativePath == "" || !filepath.IsLocal(localPath) {
		return "", fmt.Errorf("%w: %q", errNonLocalPath, relativePath)
	}

	return filepath.Join(workspaceDir, localPath), nil
}
