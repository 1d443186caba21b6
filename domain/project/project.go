package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const projectDirLayout = "2006-01-02 15-04-05"

// ProjectsDir returns <tempRoot>/ScreenToGif/Projects.
func ProjectsDir(tempRoot string) string {
	return filepath.Join(tempRoot, "ScreenToGif", "Projects")
}

// Create makes a new project directory named after date under
// ProjectsDir(tempRoot). A numeric suffix is added if the name is taken.
func Create(tempRoot string, date time.Time) (*CachedProject, error) {
	parent := ProjectsDir(tempRoot)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("project: create projects dir: %w", err)
	}
	name := date.Format(projectDirLayout)
	path := filepath.Join(parent, name)
	for i := 2; ; i++ {
		err := os.Mkdir(path, 0o755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || i > 100 {
			return nil, fmt.Errorf("project: create project dir: %w", err)
		}
		path = filepath.Join(parent, fmt.Sprintf("%s (%d)", name, i))
	}
	return &CachedProject{
		ID:                   uuid.New(),
		CacheRootPath:        path,
		PropertiesCachePath:  filepath.Join(path, "Properties.cache"),
		UndoCachePath:        filepath.Join(path, "Undo.cache"),
		RedoCachePath:        filepath.Join(path, "Redo.cache"),
		CreationDate:         date,
		LastModificationDate: date,
		HorizontalDpi:        96,
		VerticalDpi:          96,
		ChannelCount:         4,
		BitsPerChannel:       8,
	}, nil
}

// TrackCachePath returns the cache file path for track id.
func (p *CachedProject) TrackCachePath(id uint16) string {
	return filepath.Join(p.CacheRootPath, fmt.Sprintf("Track-%d.cache", id))
}

// Remove deletes the project directory.
func (p *CachedProject) Remove() error {
	if err := os.RemoveAll(p.CacheRootPath); err != nil {
		return fmt.Errorf("project: remove %s: %w", p.CacheRootPath, err)
	}
	return nil
}

// Load decodes every Track-<id>.cache file in dir, in id order.
func Load(dir string) (*CachedProject, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("project: open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project: %s is not a directory", dir)
	}
	p := &CachedProject{
		CacheRootPath:        dir,
		PropertiesCachePath:  filepath.Join(dir, "Properties.cache"),
		UndoCachePath:        filepath.Join(dir, "Undo.cache"),
		RedoCachePath:        filepath.Join(dir, "Redo.cache"),
		CreationDate:         info.ModTime(),
		LastModificationDate: info.ModTime(),
	}
	for id := uint16(1); ; id++ {
		path := p.TrackCachePath(id)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		t, err := ReadTrackFile(path)
		if err != nil {
			return nil, err
		}
		p.Tracks = append(p.Tracks, t)
	}
	return p, nil
}
