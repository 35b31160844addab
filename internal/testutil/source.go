package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/flowbaker/stickerzip/pkg/domain"
)

var (
	ErrFakeNotFound = errors.New("fake: not found")
	ErrFakeDownload = errors.New("fake: download failed")
)

// FakeSticker is one item of a fake collection.
type FakeSticker struct {
	FileID  string
	Path    string
	Content []byte
}

// FakeSource serves collections from memory. FailDownload and FailResolve
// make the matching file ids fail.
type FakeSource struct {
	mu sync.Mutex

	collections map[string]domain.Collection
	stickers    map[string]FakeSticker

	FailDownload map[string]bool
	FailResolve  map[string]bool
	// FailGetCollection makes every lookup fail with this error when set.
	FailGetCollection error

	lookups   []domain.CollectionReference
	downloads []string
}

func NewFakeSource() *FakeSource {
	return &FakeSource{
		collections:  make(map[string]domain.Collection),
		stickers:     make(map[string]FakeSticker),
		FailDownload: make(map[string]bool),
		FailResolve:  make(map[string]bool),
	}
}

// AddCollection registers a set named name with one sticker per content
// entry, stored at stickers/file_<n>.webp.
func (s *FakeSource) AddCollection(name string, contents ...[]byte) domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection := domain.Collection{Name: name, Title: strings.ToUpper(name)}

	for i, content := range contents {
		fileID := fmt.Sprintf("%s-%d", name, i)
		s.stickers[fileID] = FakeSticker{
			FileID:  fileID,
			Path:    fmt.Sprintf("stickers/file_%d.webp", i),
			Content: content,
		}
		collection.Items = append(collection.Items, domain.ItemDescriptor{
			FileID:       fileID,
			FileUniqueID: "u" + fileID,
		})
	}

	s.collections[name] = collection

	return collection
}

func (s *FakeSource) AddSticker(sticker FakeSticker) domain.ItemDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stickers[sticker.FileID] = sticker

	return domain.ItemDescriptor{FileID: sticker.FileID}
}

func (s *FakeSource) GetCollection(ctx context.Context, ref domain.CollectionReference) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups = append(s.lookups, ref)

	if s.FailGetCollection != nil {
		return domain.Collection{}, s.FailGetCollection
	}

	collection, ok := s.collections[string(ref)]
	if !ok {
		return domain.Collection{}, ErrFakeNotFound
	}

	return collection, nil
}

func (s *FakeSource) ResolveLocator(ctx context.Context, item domain.ItemDescriptor) (domain.DownloadLocator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailResolve[item.FileID] {
		return domain.DownloadLocator{}, ErrFakeNotFound
	}

	sticker, ok := s.stickers[item.FileID]
	if !ok {
		return domain.DownloadLocator{}, ErrFakeNotFound
	}

	return domain.DownloadLocator{
		FileID:       sticker.FileID,
		RelativePath: sticker.Path,
		URL:          "fake://" + sticker.Path,
		Size:         int64(len(sticker.Content)),
	}, nil
}

func (s *FakeSource) Download(ctx context.Context, locator domain.DownloadLocator, dst io.Writer) (int64, error) {
	s.mu.Lock()
	sticker, ok := s.stickers[locator.FileID]
	fail := s.FailDownload[locator.FileID]
	s.downloads = append(s.downloads, locator.FileID)
	s.mu.Unlock()

	if !ok {
		return 0, ErrFakeNotFound
	}

	if fail {
		// Write part of the payload first, like a connection dropped mid-stream.
		n, _ := dst.Write(sticker.Content[:len(sticker.Content)/2])
		return int64(n), ErrFakeDownload
	}

	n, err := dst.Write(sticker.Content)
	return int64(n), err
}

func (s *FakeSource) Lookups() []domain.CollectionReference {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.CollectionReference(nil), s.lookups...)
}

func (s *FakeSource) Downloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.downloads...)
}
