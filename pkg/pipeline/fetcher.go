package pipeline

import (
	"context"
	"fmt"

	"github.com/flowbaker/stickerzip/pkg/domain"

	"github.com/rs/zerolog"
)

// Fetcher looks a set up by reference. Every failure, transport or genuine
// absence, is reported as domain.ErrCollectionNotFound; the cause is logged.
type Fetcher struct {
	source domain.CollectionSource
}

func NewFetcher(source domain.CollectionSource) *Fetcher {
	return &Fetcher{source: source}
}

func (f *Fetcher) Fetch(ctx context.Context, ref domain.CollectionReference) (domain.Collection, error) {
	collection, err := f.source.GetCollection(ctx, ref)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("reference", ref.String()).
			Msg("Sticker set lookup failed")

		return domain.Collection{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, ref)
	}

	if collection.Name == "" {
		collection.Name = ref.String()
	}

	return collection, nil
}
