package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/planlens/roomscan/internal/core/domain"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path := filepath.Join(s.basePath, filepath.Base(key))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Fetch reads the whole blob into memory; source plans are single images,
// small enough that streaming buys nothing. A missing or unreadable file is
// reported as transient so a job triggered before the upload settled on
// shared storage gets retried instead of failed.
func (s *Storage) Fetch(_ context.Context, key string) ([]byte, error) {
	path := filepath.Join(s.basePath, filepath.Base(key))
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransient, "read stored image", err)
	}
	return buf, nil
}
