package attachments

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DiskStorage writes uploads into a directory. URLs are BaseURL + file name,
// or file:// URLs when BaseURL is empty.
type DiskStorage struct {
	Dir     string
	BaseURL string
}

// NewDiskStorage creates dir if needed
func NewDiskStorage(dir, baseURL string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStorage{Dir: dir, BaseURL: baseURL}, nil
}

// Upload stores the file under a fresh uuid name
func (s *DiskStorage) Upload(ctx context.Context, file ValidatedFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.New().String() + file.Extension
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, file.Data, 0644); err != nil {
		return "", err
	}

	if s.BaseURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + name, nil
}

// MemoryStorage keeps uploads in memory
type MemoryStorage struct {
	mu      sync.Mutex
	BaseURL string
	Files   map[string]ValidatedFile
	Calls   int
	Err     error // Returned by Upload when set
}

// NewMemoryStorage returns an empty MemoryStorage
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{BaseURL: baseURL, Files: make(map[string]ValidatedFile)}
}

// Upload records the file
func (s *MemoryStorage) Upload(ctx context.Context, file ValidatedFile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return "", s.Err
	}
	u := fmt.Sprintf("%s/%s%s", strings.TrimRight(s.BaseURL, "/"), uuid.New().String(), file.Extension)
	s.Files[u] = file
	return u, nil
}

// UploadCount returns how many times Upload was called
func (s *MemoryStorage) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}
