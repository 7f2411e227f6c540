package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind names a family of cached artifacts; each gets its own directory.
type Kind string

const (
	KindScans Kind = "scans" // every record a search scanned, as JSON
	KindPages Kind = "pages" // standalone result pages opened in the browser
)

// DefaultKeep is how many artifacts of each kind survive pruning
const DefaultKeep = 20

// stampLayout sorts lexically in time order
const stampLayout = "2006-01-02T15-04-05.000"

// ErrNoArtifact means nothing of the requested kind has been cached yet
var ErrNoArtifact = errors.New("no cached artifact")

// Cache keeps timestamped debugging artifacts under a directory, pruning all
// but the newest Keep of each kind on write.
type Cache struct {
	Keep int

	dir string
	now func() time.Time
}

// NewCache returns a cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{Keep: DefaultKeep, dir: dir, now: time.Now}
}

// WriteText stores content as a new artifact with extension ext (".html").
func (c *Cache) WriteText(kind Kind, content, ext string) (string, error) {
	return c.write(kind, ext, []byte(content))
}

// WriteJSON stores v, indented, as a new JSON artifact
func WriteJSON[T any](c *Cache, kind Kind, v T) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cache: encode %s: %w", kind, err)
	}
	return c.write(kind, ".json", data)
}

// ReadLatestJSON decodes the newest JSON artifact of kind and returns it with
// its path. ErrNoArtifact when there is none.
func ReadLatestJSON[T any](c *Cache, kind Kind) (T, string, error) {
	var v T

	files, err := c.list(kind, ".json")
	if err != nil {
		return v, "", err
	}
	if len(files) == 0 {
		return v, "", fmt.Errorf("%w: %s", ErrNoArtifact, kind)
	}

	path := files[len(files)-1]
	data, err := os.ReadFile(path)
	if err != nil {
		return v, "", fmt.Errorf("cache: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, "", fmt.Errorf("cache: decode %s: %w", path, err)
	}
	return v, path, nil
}

func (c *Cache) write(kind Kind, ext string, data []byte) (string, error) {
	dir := filepath.Join(c.dir, string(kind))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cache: mkdir: %w", err)
	}

	path := filepath.Join(dir, c.now().UTC().Format(stampLayout)+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("cache: write %s: %w", kind, err)
	}

	if err := c.prune(kind, ext); err != nil {
		return path, err
	}
	return path, nil
}

// list returns the artifacts of kind with extension ext, oldest first
func (c *Cache) list(kind Kind, ext string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.dir, string(kind)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: list %s: %w", kind, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			files = append(files, filepath.Join(c.dir, string(kind), e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (c *Cache) prune(kind Kind, ext string) error {
	if c.Keep <= 0 {
		return nil
	}
	files, err := c.list(kind, ext)
	if err != nil {
		return err
	}
	for len(files) > c.Keep {
		if err := os.Remove(files[0]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cache: prune: %w", err)
		}
		files = files[1:]
	}
	return nil
}
