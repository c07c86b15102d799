package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// File stores the snapshot blob in a single local file, written atomically
// via a temp file and rename so a crash mid-write never leaves a torn blob.
type File struct {
	path   string
	logger *log.Logger
}

// NewFile creates a file-backed store at the given path. The parent
// directory is created on the first save.
func NewFile(path string, logger *log.Logger) *File {
	return &File{path: path, logger: logger}
}

func (f *File) Load(ctx context.Context) (Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) && f.logger != nil {
			f.logger.WithError(err).Warn("snapshot unreadable, starting empty")
		}
		return Document{}, nil
	}
	var doc Document
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		if f.logger != nil {
			f.logger.WithError(err).Warn("snapshot corrupt, starting empty")
		}
		return Document{}, nil
	}
	return doc, nil
}

func (f *File) Save(ctx context.Context, doc Document) error {
	data, err := sonic.ConfigStd.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
