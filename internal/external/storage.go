package external

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage writes uploads under a directory and serves them from baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) BaseURL() string { return s.baseURL }

func (s *LocalStorage) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		base = "upload"
	}
	stored := uuid.New().String() + "-" + base

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	f, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("writing upload %s: %w", base, err)
	}
	return s.baseURL + "/" + stored, nil
}
