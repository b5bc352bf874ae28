package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
)

type UploadCall struct {
	Path      string
	Folder    string
	Transform helpers.Transform
}

// StubUploader records uploads instead of sending them anywhere. Files whose
// base name is in FailOn fail with models.ErrUpload.
type StubUploader struct {
	FailOn map[string]bool
	Delay  time.Duration

	mu          sync.Mutex
	n           int
	inFlight    int
	maxInFlight int
	uploads     []UploadCall
	deleted     []string
}

func (s *StubUploader) Upload(ctx context.Context, localFilePath, folder string, t helpers.Transform) (*helpers.UploadResult, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", models.ErrUpload, ctx.Err())
		}
	}

	base := filepath.Base(localFilePath)
	if s.FailOn[base] {
		return nil, fmt.Errorf("%w: %s rejected", models.ErrUpload, base)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	s.uploads = append(s.uploads, UploadCall{Path: localFilePath, Folder: folder, Transform: t})
	id := fmt.Sprintf("%s/asset-%d", folder, s.n)
	return &helpers.UploadResult{URL: "https://assets.test/" + id + ".png", AssetID: id}, nil
}

func (s *StubUploader) Delete(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, assetID)
	return nil
}

// Uploads returns the successful uploads in completion order.
func (s *StubUploader) Uploads() []UploadCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UploadCall{}, s.uploads...)
}

func (s *StubUploader) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.deleted...)
}

// MaxInFlight is the highest number of uploads observed running at once.
func (s *StubUploader) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}
