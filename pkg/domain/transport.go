package domain

import (
	"context"
	"io"
)

// CollectionSource is the remote side of the pipeline: set metadata, file
// locators and the file bytes themselves.
type CollectionSource interface {
	GetCollection(ctx context.Context, ref CollectionReference) (Collection, error)
	ResolveLocator(ctx context.Context, item ItemDescriptor) (DownloadLocator, error)
	Download(ctx context.Context, locator DownloadLocator, dst io.Writer) (int64, error)
}

// Messenger delivers status text and the finished archive back to a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, path string) error
}
