package fs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/spider"
)

// Ensure PageStore implements spider.PageStore at compile time.
var _ spider.PageStore = (*PageStore)(nil)

// PageStore implements spider.PageStore with atomic update semantics.
// Pages are saved to a temporary directory, then moved atomically on Commit.
type PageStore struct {
	baseDir string
	name    string
	now     func() time.Time
}

// NewPageStore creates a new PageStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewPageStore(baseDir, name string) *PageStore {
	return &PageStore{
		baseDir: baseDir,
		name:    name,
		now:     time.Now,
	}
}

func (s *PageStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *PageStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes the page as a text file with a frontmatter header.
func (s *PageStore) Save(ctx context.Context, page *spider.ParsedPage) error {
	relPath, err := URLToPath(page.SourceURL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), filepath.FromSlash(relPath))

	// Create parent directories
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	content, err := FormatPage(page, s.now())
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

// Commit replaces the output directory with everything saved so far.
func (s *PageStore) Commit() error {
	// A crawl that saved nothing still produces an (empty) output directory.
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}

	// Remove existing final directory if present
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards everything saved so far.
func (s *PageStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
