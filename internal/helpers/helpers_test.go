package helpers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshua-takyi/locals/internal/models"
)

func TestGenerateAccessToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok, err := GenerateAccessToken()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(tok) != 2*AccessTokenBytes {
			t.Fatalf("unexpected token length %d", len(tok))
		}
		if seen[tok] {
			t.Fatalf("duplicate token")
		}
		seen[tok] = true
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("hash equals plaintext")
	}
	if !CheckPassword("secret1", hash) || CheckPassword("secret2", hash) {
		t.Fatalf("hash does not verify correctly")
	}
	if CheckPassword("secret1", "not-a-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	// 36 two-byte runes pass a rune count of 72 but are 72 bytes; one more is over
	if _, err := HashPassword(strings.Repeat("é", 36)); err != nil {
		t.Fatalf("expected 72 bytes to hash, got %v", err)
	}
	_, err := HashPassword(strings.Repeat("é", 37))
	var verr *models.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["password"] == "" {
		t.Fatalf("expected password field error, got %v", verr.Fields)
	}
}

func TestTransformString(t *testing.T) {
	if got := LogoTransform.String(); got != "c_limit,h_300,w_300" {
		t.Fatalf("unexpected transform %q", got)
	}
	if got := (Transform{Width: 120}).String(); got != "w_120" {
		t.Fatalf("unexpected transform %q", got)
	}
	if got := (Transform{}).String(); got != "" {
		t.Fatalf("expected empty transform, got %q", got)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ann@X.com "); got != "ann@x.com" {
		t.Fatalf("unexpected %q", got)
	}
	if got := StringTrim(` "abc" `); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestCloudinaryUploaderMissingFile(t *testing.T) {
	u := NewCloudinaryUploader(nil, 0, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.png"), LocalsFolder, LogoTransform)
	if !errors.Is(err, models.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if _, err := u.Upload(context.Background(), "", LocalsFolder, LogoTransform); !errors.Is(err, models.ErrUpload) {
		t.Fatalf("expected upload error for empty path, got %v", err)
	}
}
