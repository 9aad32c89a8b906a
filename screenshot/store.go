// Package screenshot persists page captures to disk and serves them by
// public path.
package screenshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loadwire/loadwire/models"
)

// PublicPrefix is the URL path prefix screenshots are served under.
const PublicPrefix = "/screenshots"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store writes screenshot files into a directory and prunes old ones.
type Store struct {
	dir       string
	retention time.Duration
	stop      chan struct{}
}

// New creates the directory if needed and starts the retention sweep.
// A non-positive retention disables pruning.
func New(dir string, retention time.Duration) (*Store, error) {
	if dir == "" {
		dir = "./screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	s := &Store{
		dir:       dir,
		retention: retention,
		stop:      make(chan struct{}),
	}
	if retention > 0 {
		go s.sweepLoop()
	}
	return s, nil
}

// Dir returns the backing directory, for static file serving.
func (s *Store) Dir() string { return s.dir }

// Save writes PNG data for the given page URL and returns the public
// path of the file. The filename embeds a sanitized form of the URL so
// operators can tell captures apart, plus a UUID so names never collide.
func (s *Store) Save(data []byte, pageURL string) (string, error) {
	name := fmt.Sprintf("%s_%s.png", sanitize(pageURL), uuid.NewString())
	full := filepath.Join(s.dir, name)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", models.NewLoadError(models.ErrCodeScreenshotFailed,
			"failed to persist screenshot", err)
	}
	return PublicPrefix + "/" + name, nil
}

// sanitize turns a URL into a short filesystem-safe fragment.
func sanitize(pageURL string) string {
	u := strings.TrimPrefix(strings.TrimPrefix(pageURL, "https://"), "http://")
	u = unsafeChars.ReplaceAllString(u, "_")
	u = strings.Trim(u, "_")
	if len(u) > 80 {
		u = u[:80]
	}
	if u == "" {
		u = "page"
	}
	return u
}

// CleanupOlderThan removes files older than the given age and returns
// how many were deleted.
func (s *Store) CleanupOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-age)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Close stops the retention sweep.
func (s *Store) Close() {
	close(s.stop)
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed, err := s.CleanupOlderThan(s.retention); err != nil {
				slog.Warn("screenshot: cleanup failed", "error", err)
			} else if removed > 0 {
				slog.Info("screenshot: pruned old captures", "removed", removed)
			}
		case <-s.stop:
			return
		}
	}
}
