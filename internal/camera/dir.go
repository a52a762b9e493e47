package camera

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Dir replays the image files of a directory, one per capture, in name order
type Dir struct {
	Path string
	Loop bool
}

func (d Dir) Open(ctx context.Context) (Source, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif":
			files = append(files, filepath.Join(d.Path, e.Name()))
		}
	}
	sort.Strings(files)

	slog.Debug("Opened frames directory", "path", d.Path, "frames", len(files), "loop", d.Loop)
	return &dirSource{files: files, loop: d.Loop}, nil
}

type dirSource struct {
	mu     sync.Mutex
	files  []string
	next   int
	loop   bool
	closed bool
}

func (s *dirSource) Capture(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	if s.closed || len(s.files) == 0 {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	if s.next >= len(s.files) {
		if !s.loop {
			s.mu.Unlock()
			return nil, ErrNotReady
		}
		s.next = 0
	}
	path := s.files[s.next]
	s.next++
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return newFrame(filepath.Base(path), data)
}

func (s *dirSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// File captures the same image file on every tick. The file is re-read each
// time so an external process can keep overwriting it.
type File struct {
	Path string
}

func (f File) Open(ctx context.Context) (Source, error) {
	if _, err := os.Stat(f.Path); err != nil {
		return nil, fmt.Errorf("failed to open frame file: %w", err)
	}
	return &fileSource{path: f.Path}, nil
}

type fileSource struct {
	path string
}

func (s *fileSource) Capture(ctx context.Context) (*Frame, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return newFrame(filepath.Base(s.path), data)
}

func (s *fileSource) Close() error {
	return nil
}
