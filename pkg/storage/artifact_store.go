package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

const (
	tempPrefix         = ".tmp-"
	maxPublishAttempts = 1000
)

// FileInfo describes a stored artifact.
type FileInfo struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Size    int64     `json:"size"`
}

// ArtifactStore keeps generated files in a single flat directory. Files are
// published atomically and never rewritten; removal is left to operators.
type ArtifactStore struct {
	baseDir string
	now     func() time.Time
}

// NewArtifactStore ensures the base directory exists and returns a handle.
func NewArtifactStore(baseDir string) (*ArtifactStore, error) {
	if baseDir == "" {
		baseDir = "./generated-logins"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &ArtifactStore{baseDir: abs, now: time.Now}, nil
}

// Dir returns the absolute artifact directory.
func (s *ArtifactStore) Dir() string {
	return s.baseDir
}

// Publish writes data under a name derived from prefix and the current time.
// The bytes land in a hidden temp file first and are renamed into place, so a
// reader never observes a partially written artifact.
func (s *ArtifactStore) Publish(prefix, ext string, data []byte) (FileInfo, error) {
	createdAt := s.now()
	base := sanitizePrefix(prefix)

	tmp, err := os.CreateTemp(s.baseDir, tempPrefix+"*")
	if err != nil {
		return FileInfo{}, fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return FileInfo{}, fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return FileInfo{}, fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return FileInfo{}, fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		return FileInfo{}, fmt.Errorf("chmod artifact: %w", err)
	}
	// Link refuses to replace an existing file, so a name collision within the
	// same millisecond moves on to the next stamp instead of overwriting.
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		stamp := createdAt.Add(time.Duration(attempt) * time.Millisecond)
		name := fmt.Sprintf("%s_%d%s", base, stamp.UnixMilli(), ext)
		err := os.Link(tmpName, filepath.Join(s.baseDir, name))
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return FileInfo{}, fmt.Errorf("publish artifact: %w", err)
		}
		return FileInfo{Name: name, Created: stamp, Size: int64(len(data))}, nil
	}
	return FileInfo{}, fmt.Errorf("publish artifact: no free name for prefix %q", base)
}

// List returns published artifacts, newest first.
func (s *ArtifactStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read artifact directory: %w", err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat artifact %s: %w", entry.Name(), err)
		}
		files = append(files, FileInfo{Name: entry.Name(), Created: info.ModTime(), Size: info.Size()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Created.Equal(files[j].Created) {
			return files[i].Name > files[j].Name
		}
		return files[i].Created.After(files[j].Created)
	})
	return files, nil
}

// Open returns a read-only handle for a published artifact. Names that do not
// resolve to a plain file directly inside the directory report not found.
func (s *ArtifactStore) Open(name string) (*os.File, FileInfo, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, FileInfo{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, FileInfo{}, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, FileInfo{}, fmt.Errorf("open artifact: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, FileInfo{}, fmt.Errorf("stat artifact: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, FileInfo{}, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	return file, FileInfo{Name: info.Name(), Created: info.ModTime(), Size: info.Size()}, nil
}

// ReadFile returns the full contents of a published artifact.
func (s *ArtifactStore) ReadFile(name string) ([]byte, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Resolve canonicalises a caller supplied name and confines it to the
// artifact directory.
func (s *ArtifactStore) Resolve(name string) (string, error) {
	if !fs.ValidPath(name) || name == "." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	path := filepath.Join(s.baseDir, name)
	if filepath.Dir(path) != s.baseDir {
		return "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	return path, nil
}

func sanitizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "artifact"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, prefix)
}
