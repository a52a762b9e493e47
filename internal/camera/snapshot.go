package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxSnapshotBytes caps a single snapshot download
const maxSnapshotBytes = 10 * 1024 * 1024

// Snapshot grabs stills from an IP camera that serves a JPEG per GET
type Snapshot struct {
	URL        string
	HTTPClient *http.Client
}

func (s Snapshot) Open(ctx context.Context) (Source, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("snapshot URL is required")
	}
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 5 * time.Second,
		}
	}
	return &snapshotSource{url: s.URL, client: client}, nil
}

type snapshotSource struct {
	url    string
	client *http.Client
}

func (s *snapshotSource) Capture(ctx context.Context) (*Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch snapshot: %v", ErrNotReady, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: snapshot returned status %d", ErrNotReady, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read snapshot: %v", ErrNotReady, err)
	}
	return newFrame(s.url, data)
}

func (s *snapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
