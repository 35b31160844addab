// Package workspace owns the per-request scratch directory and archive file.
//
// Layout under the scratch root:
//
//	<root>/<request id>/<chat>_<set>/stickers/...
//	<root>/<request id>/<chat>_<set>.zip
//
// The request id directory keeps two in-flight requests apart even when they
// come from the same chat for the same set.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const (
	ItemsDirName     = "stickers"
	ArchiveExtension = ".zip"
)

// Name derives the workspace name from the requester and the set name.
func Name(chatID int64, collectionName string) string {
	return strconv.FormatInt(chatID, 10) + "_" + sanitize(collectionName)
}

// sanitize keeps the name a single path element. Telegram set names only use
// letters, digits and underscores, so real names pass through untouched.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, strings.Trim(name, "."))
}

type Workspace struct {
	requestRoot string
	name        string
	dir         string
	archivePath string
}

type AcquireParams struct {
	Root           string
	RequestID      string
	ChatID         int64
	CollectionName string
}

// Acquire creates the workspace directory with its items subdirectory. The
// returned workspace must be released by the caller on every path.
func Acquire(p AcquireParams) (*Workspace, error) {
	requestID := p.RequestID
	if requestID == "" {
		requestID = xid.New().String()
	}

	name := Name(p.ChatID, p.CollectionName)
	requestRoot := filepath.Join(p.Root, requestID)

	ws := &Workspace{
		requestRoot: requestRoot,
		name:        name,
		dir:         filepath.Join(requestRoot, name),
		archivePath: filepath.Join(requestRoot, name+ArchiveExtension),
	}

	if err := os.MkdirAll(p.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch root: %w", err)
	}

	// Mkdir, not MkdirAll: an existing request root means a name collision.
	if err := os.Mkdir(requestRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create request directory: %w", err)
	}

	if err := os.MkdirAll(ws.ItemsDir(), 0o755); err != nil {
		if releaseErr := ws.Release(); releaseErr != nil {
			log.Warn().Err(releaseErr).Str("workspace", ws.dir).Msg("Failed to release workspace")
		}
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return ws, nil
}

func (w *Workspace) Name() string {
	return w.name
}

func (w *Workspace) Dir() string {
	return w.dir
}

func (w *Workspace) ItemsDir() string {
	return filepath.Join(w.dir, ItemsDirName)
}

func (w *Workspace) ArchivePath() string {
	return w.archivePath
}

func (w *Workspace) ArchiveName() string {
	return filepath.Base(w.archivePath)
}

// Release removes the workspace tree, the archive and the request directory.
// It attempts every removal and joins the failures.
func (w *Workspace) Release() error {
	var errs []error

	if err := os.RemoveAll(w.dir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove workspace directory: %w", err))
	}

	if err := os.Remove(w.archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove archive: %w", err))
	}

	if err := os.Remove(w.requestRoot); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove request directory: %w", err))
	}

	return errors.Join(errs...)
}

// PurgeStale removes request directories left behind under root, for example
// after the process was killed mid-request. It returns the removed paths.
func PurgeStale(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scratch root: %w", err)
	}

	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if _, err := xid.FromString(entry.Name()); err != nil {
			continue
		}

		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}

		removed = append(removed, path)
	}

	return removed, nil
}
