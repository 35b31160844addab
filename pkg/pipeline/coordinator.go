// Package pipeline runs one sticker set request from the inbound message to
// the delivered archive.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowbaker/stickerzip/pkg/archive"
	"github.com/flowbaker/stickerzip/pkg/domain"
	"github.com/flowbaker/stickerzip/pkg/materializer"
	"github.com/flowbaker/stickerzip/pkg/resolver"
	"github.com/flowbaker/stickerzip/pkg/workspace"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Stage string

const (
	Stage_Resolving     Stage = "resolving"
	Stage_Fetching      Stage = "fetching"
	Stage_Materializing Stage = "materializing"
	Stage_Archiving     Stage = "archiving"
	Stage_Uploading     Stage = "uploading"
	Stage_Cleanup       Stage = "cleanup"
	Stage_Done          Stage = "done"
	Stage_Aborted       Stage = "aborted"
)

type Request struct {
	// RequestID names the scratch directory and tags log lines. Generated when empty.
	RequestID string
	ChatID    int64
	Input     resolver.Input
}

type Coordinator struct {
	fetcher        *Fetcher
	materializer   *materializer.Materializer
	archiveBuilder archive.Builder
	messenger      domain.Messenger
	metrics        domain.PipelineMetrics
	scratchDir     string
}

type CoordinatorDependencies struct {
	Source              domain.CollectionSource
	Messenger           domain.Messenger
	Metrics             domain.PipelineMetrics
	ScratchDir          string
	DownloadConcurrency int
	CompressionLevel    int
}

func NewCoordinator(deps CoordinatorDependencies) *Coordinator {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = domain.NewNoopPipelineMetrics()
	}

	return &Coordinator{
		fetcher: NewFetcher(deps.Source),
		materializer: materializer.NewMaterializer(materializer.MaterializerDependencies{
			Source:      deps.Source,
			Concurrency: deps.DownloadConcurrency,
		}),
		archiveBuilder: archive.NewBuilder(deps.CompressionLevel),
		messenger:      deps.Messenger,
		metrics:        metrics,
		scratchDir:     deps.ScratchDir,
	}
}

type requestRun struct {
	request Request
	stage   Stage
	// abortedAt is the stage that failed when cleanup ran after it.
	abortedAt Stage
	logger    zerolog.Logger
}

func (r *requestRun) enter(stage Stage) {
	r.stage = stage
	r.logger.Debug().Str("stage", string(stage)).Msg("Request stage entered")
}

// Handle runs the whole pipeline for one request and replies to the chat at
// every milestone. The returned error is already reported to the user; it is
// returned for logging only. The scratch workspace and archive never outlive
// this call.
func (c *Coordinator) Handle(ctx context.Context, req Request) (err error) {
	startedAt := time.Now()

	if req.RequestID == "" {
		req.RequestID = xid.New().String()
	}

	run := &requestRun{
		request: req,
		logger: log.With().
			Str("request_id", req.RequestID).
			Int64("chat_id", req.ChatID).
			Str("input_kind", string(req.Input.Kind)).
			Logger(),
	}
	ctx = run.logger.WithContext(ctx)

	c.metrics.IncInFlight()
	defer func() {
		c.metrics.DecInFlight()
		c.metrics.ObserveRequest(outcomeOf(err), time.Since(startedAt))
	}()

	err = c.handle(ctx, run)
	if err != nil {
		failedStage := run.stage
		if run.abortedAt != "" {
			failedStage = run.abortedAt
		}
		run.enter(Stage_Aborted)

		c.reply(ctx, run, failureMessage(err))

		event := run.logger.Error()
		if errors.Is(err, domain.ErrResolutionNotFound) || errors.Is(err, domain.ErrCollectionNotFound) {
			event = run.logger.Info()
		}
		event.Err(err).
			Str("failed_stage", string(failedStage)).
			Dur("elapsed", time.Since(startedAt)).
			Msg("Sticker set request aborted")

		return err
	}

	if err := c.messenger.SendText(ctx, req.ChatID, MessageDone); err != nil {
		return fmt.Errorf("%w: failed to send completion message: %w", domain.ErrDeliveryFailure, err)
	}

	run.enter(Stage_Done)
	run.logger.Info().Dur("elapsed", time.Since(startedAt)).Msg("Sticker set delivered")

	return nil
}

func (c *Coordinator) handle(ctx context.Context, run *requestRun) error {
	run.enter(Stage_Resolving)

	ref, err := resolver.Resolve(run.request.Input)
	if err != nil {
		return err
	}

	run.logger = run.logger.With().Str("reference", ref.String()).Logger()
	ctx = run.logger.WithContext(ctx)

	run.enter(Stage_Fetching)

	collection, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		return err
	}

	return c.deliver(ctx, run, collection)
}

// deliver owns the scratch workspace: everything created from here on is
// removed when it returns, whatever the outcome.
func (c *Coordinator) deliver(ctx context.Context, run *requestRun, collection domain.Collection) (err error) {
	run.enter(Stage_Materializing)

	if err := c.messenger.SendText(ctx, run.request.ChatID, progressMessage(len(collection.Items))); err != nil {
		return fmt.Errorf("%w: failed to send progress message: %w", domain.ErrDeliveryFailure, err)
	}

	ws, err := workspace.Acquire(workspace.AcquireParams{
		Root:           c.scratchDir,
		RequestID:      run.request.RequestID,
		ChatID:         run.request.ChatID,
		CollectionName: collection.Name,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIOFailure, err)
	}
	defer func() {
		lastStage := run.stage
		run.enter(Stage_Cleanup)

		if releaseErr := ws.Release(); releaseErr != nil {
			c.metrics.IncCleanupFailures()
			run.logger.Error().Err(releaseErr).Str("workspace", ws.Dir()).Msg("Failed to clean up workspace")
		}

		if err != nil {
			run.abortedAt = lastStage
		}
	}()

	count, err := c.materializer.Materialize(ctx, ws.Dir(), collection.Items)
	c.metrics.AddItemsDownloaded(count)
	if err != nil {
		return err
	}

	run.enter(Stage_Archiving)

	size, err := c.archiveBuilder.Build(ws.Dir(), ws.ArchivePath())
	if err != nil {
		return err
	}
	c.metrics.ObserveArchiveSize(size)

	run.enter(Stage_Uploading)

	if err := c.messenger.SendDocument(ctx, run.request.ChatID, ws.ArchivePath()); err != nil {
		return fmt.Errorf("%w: failed to upload %s: %w", domain.ErrDeliveryFailure, ws.ArchiveName(), err)
	}

	run.logger.Debug().
		Str("archive", ws.ArchiveName()).
		Int("items", count).
		Int64("archive_bytes", size).
		Msg("Archive uploaded")

	return nil
}

func (c *Coordinator) reply(ctx context.Context, run *requestRun, text string) {
	if err := c.messenger.SendText(ctx, run.request.ChatID, text); err != nil {
		run.logger.Warn().Err(err).Str("text", text).Msg("Failed to send reply")
	}
}
