package testutil

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zip"
)

var ErrFakeUpload = errors.New("fake: upload failed")

type SentMessage struct {
	ChatID int64
	Text   string
}

// SentDocument records an uploaded archive. Entries is the archive listing
// and Files the file contents, captured at upload time because the caller
// removes the archive right after.
type SentDocument struct {
	ChatID   int64
	FileName string
	Entries  []string
	Files    map[string][]byte
}

type FakeMessenger struct {
	mu sync.Mutex

	FailUpload bool
	FailText   bool

	messages  []SentMessage
	documents []SentDocument
}

func NewFakeMessenger() *FakeMessenger {
	return &FakeMessenger{}
}

func (m *FakeMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, SentMessage{ChatID: chatID, Text: text})

	if m.FailText {
		return errors.New("fake: send text failed")
	}

	return nil
}

func (m *FakeMessenger) SendDocument(ctx context.Context, chatID int64, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpload {
		return ErrFakeUpload
	}

	doc := SentDocument{
		ChatID:   chatID,
		FileName: filepath.Base(path),
		Files:    make(map[string][]byte),
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, f := range reader.File {
		doc.Entries = append(doc.Entries, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		doc.Files[f.Name] = content
	}

	m.documents = append(m.documents, doc)

	return nil
}

func (m *FakeMessenger) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]SentMessage(nil), m.messages...)
}

func (m *FakeMessenger) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	texts := make([]string, len(m.messages))
	for i, msg := range m.messages {
		texts[i] = msg.Text
	}

	return texts
}

func (m *FakeMessenger) Documents() []SentDocument {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]SentDocument(nil), m.documents...)
}
