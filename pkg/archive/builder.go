// Package archive packs a scratch workspace into a single zip file.
package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/flowbaker/stickerzip/pkg/domain"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

type Builder struct {
	// Level is a flate compression level; zero means flate.DefaultCompression.
	Level int
}

func NewBuilder(level int) Builder {
	return Builder{Level: level}
}

// Build writes every file and directory under sourceDir into destArchive and
// returns the archive size. Entry names are relative to sourceDir and use
// forward slashes. A partially written archive is left for the caller to remove.
func Build(sourceDir, destArchive string) (int64, error) {
	return Builder{}.Build(sourceDir, destArchive)
}

func (b Builder) Build(sourceDir, destArchive string) (size int64, err error) {
	level := b.Level
	if level == 0 {
		level = flate.DefaultCompression
	}

	archiveFile, err := os.Create(destArchive)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create archive: %w", domain.ErrIOFailure, err)
	}
	defer func() {
		if closeErr := archiveFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close archive: %w", domain.ErrIOFailure, closeErr)
		}
	}()

	zipWriter := zip.NewWriter(archiveFile)
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, relErr := filepath.Rel(sourceDir, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}

		if relPath == "." {
			return nil
		}

		entryName := filepath.ToSlash(relPath)

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("failed to get file info: %w", infoErr)
		}

		if d.IsDir() {
			header, headerErr := zip.FileInfoHeader(info)
			if headerErr != nil {
				return fmt.Errorf("failed to create directory header: %w", headerErr)
			}
			header.Name = entryName + "/"
			header.Method = zip.Store

			if _, createErr := zipWriter.CreateHeader(header); createErr != nil {
				return fmt.Errorf("failed to create directory entry %s: %w", entryName, createErr)
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return addFile(zipWriter, path, entryName, info)
	})

	if walkErr != nil {
		zipWriter.Close()
		return 0, fmt.Errorf("%w: failed to archive %s: %w", domain.ErrIOFailure, sourceDir, walkErr)
	}

	if err := zipWriter.Close(); err != nil {
		return 0, fmt.Errorf("%w: failed to finalize archive: %w", domain.ErrIOFailure, err)
	}

	stat, err := archiveFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to stat archive: %w", domain.ErrIOFailure, err)
	}

	return stat.Size(), nil
}

func addFile(zipWriter *zip.Writer, path, entryName string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = entryName
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", entryName, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(writer, file); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", entryName, err)
	}

	return nil
}
