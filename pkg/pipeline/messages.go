package pipeline

import (
	"errors"
	"fmt"

	"github.com/flowbaker/stickerzip/pkg/domain"
	"github.com/flowbaker/stickerzip/pkg/resolver"
)

const (
	MessageIncorrectURL       = "Incorrect url for emoji / sticker set"
	MessageSetNameNotFound    = "Sticker set name not found"
	MessageDownloadUsage      = "Usage: /download <sticker set name or link>"
	MessageStickerNotFound    = "Sticker not found"
	MessageDone               = "Done"
	MessageSomethingWentWrong = "Something went wrong while preparing the sticker set, please try again later"
)

func progressMessage(itemCount int) string {
	return fmt.Sprintf("Downloading %d stickers...", itemCount)
}

// failureMessage picks the reply for a failed request. Resolution failures
// get a reason-specific text, everything unexpected gets the generic one.
func failureMessage(err error) string {
	var resolutionErr *resolver.ResolutionError
	if errors.As(err, &resolutionErr) {
		switch resolutionErr.Reason {
		case resolver.Reason_IncorrectURL:
			return MessageIncorrectURL
		case resolver.Reason_NameMissing:
			return MessageSetNameNotFound
		case resolver.Reason_MissingArgument:
			return MessageDownloadUsage
		}
	}

	if errors.Is(err, domain.ErrCollectionNotFound) {
		return MessageStickerNotFound
	}

	return MessageSomethingWentWrong
}

func outcomeOf(err error) domain.PipelineOutcome {
	switch {
	case err == nil:
		return domain.PipelineOutcome_Success
	case errors.Is(err, domain.ErrResolutionNotFound):
		return domain.PipelineOutcome_ResolutionNotFound
	case errors.Is(err, domain.ErrCollectionNotFound):
		return domain.PipelineOutcome_CollectionNotFound
	case errors.Is(err, domain.ErrDeliveryFailure):
		return domain.PipelineOutcome_DeliveryFailure
	default:
		return domain.PipelineOutcome_IOFailure
	}
}
