package helpers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/locals/internal/models"
)

func newTestUploader(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*CloudinaryUploader, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cld, err := cloudinary.NewFromParams("demo", "key", "secret")
	if err != nil {
		t.Fatalf("cloudinary: %v", err)
	}
	cld.Upload.Config.API.UploadPrefix = srv.URL

	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return NewCloudinaryUploader(cld, timeout, 2, slog.New(slog.NewTextHandler(io.Discard, nil))), path
}

func TestCloudinaryUploaderSuccess(t *testing.T) {
	var folder, transformation string
	u, path := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			folder = r.FormValue("folder")
			transformation = r.FormValue("transformation")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.example/locals/logo.png","public_id":"locals/logo"}`))
	}, time.Second)

	res, err := u.Upload(context.Background(), path, LocalsFolder, LogoTransform)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.URL != "https://res.example/locals/logo.png" || res.AssetID != "locals/logo" {
		t.Fatalf("unexpected result %+v", res)
	}
	if folder != LocalsFolder || transformation != LogoTransform.String() {
		t.Fatalf("unexpected upload params folder=%q transformation=%q", folder, transformation)
	}
}

func TestCloudinaryUploaderTimeout(t *testing.T) {
	release := make(chan struct{})
	u, path := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	start := time.Now()
	_, err := u.Upload(context.Background(), path, LocalsFolder, LogoTransform)
	if !errors.Is(err, models.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout message, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("upload was not cut off by its timeout, took %s", elapsed)
	}
}

func TestCloudinaryUploaderAPIError(t *testing.T) {
	u, path := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid image file"}}`))
	}, time.Second)

	_, err := u.Upload(context.Background(), path, LocalsFolder, LogoTransform)
	if !errors.Is(err, models.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid image file") {
		t.Fatalf("expected host message in error, got %v", err)
	}
}
