package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/joshua-takyi/locals/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

const (
	LocalsFolder     = "locals"
	SeedLocalsFolder = "image_logo"
	CategoriesFolder = "categories"

	uploadTag = "torslanda-locals"
)

// LogoTransform fits images inside 300x300 without upscaling.
var LogoTransform = Transform{Width: 300, Height: 300, Crop: "limit"}

var (
	assetUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "asset_uploads_total", Help: "Count of asset uploads by outcome"},
		[]string{"folder", "outcome"},
	)
	assetUploadLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_upload_duration_seconds",
			Help:    "Latency of asset uploads",
			Buckets: prometheus.DefBuckets,
		}, []string{"folder"},
	)
)

func init() { prometheus.MustRegister(assetUploadsTotal, assetUploadLatency) }

// Transform holds sizing options forwarded to the asset host as-is.
type Transform struct {
	Width  int
	Height int
	Crop   string
}

// String renders the transform in the host's URL syntax, e.g. "c_limit,h_300,w_300".
func (t Transform) String() string {
	var parts []string
	if t.Crop != "" {
		parts = append(parts, "c_"+t.Crop)
	}
	if t.Height > 0 {
		parts = append(parts, "h_"+strconv.Itoa(t.Height))
	}
	if t.Width > 0 {
		parts = append(parts, "w_"+strconv.Itoa(t.Width))
	}
	return strings.Join(parts, ",")
}

type UploadResult struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
}

// AssetUploader stores local files at the asset host. Every failure is
// returned as an error wrapping models.ErrUpload; nothing is retried.
type AssetUploader interface {
	Upload(ctx context.Context, localFilePath, folder string, t Transform) (*UploadResult, error)
	Delete(ctx context.Context, assetID string) error
}

type CloudinaryUploader struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary, timeout time.Duration, maxInFlight int64, logger *slog.Logger) *CloudinaryUploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &CloudinaryUploader{
		cld:     cld,
		timeout: timeout,
		sem:     semaphore.NewWeighted(maxInFlight),
		logger:  logger,
	}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, localFilePath, folder string, t Transform) (*UploadResult, error) {
	res, err := u.upload(ctx, localFilePath, folder, t)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	assetUploadsTotal.WithLabelValues(folder, outcome).Inc()
	return res, err
}

func (u *CloudinaryUploader) upload(ctx context.Context, localFilePath, folder string, t Transform) (*UploadResult, error) {
	if strings.TrimSpace(localFilePath) == "" {
		return nil, fmt.Errorf("%w: empty image path", models.ErrUpload)
	}
	if _, err := os.Stat(localFilePath); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpload, err)
	}

	// the in-flight bound is shared by every caller of this uploader
	if err := u.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for upload slot: %v", models.ErrUpload, err)
	}
	defer u.sem.Release(1)

	uploadCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	result, err := u.cld.Upload.Upload(uploadCtx, localFilePath, uploader.UploadParams{
		Folder:         folder,
		Tags:           []string{uploadTag},
		Transformation: t.String(),
	})
	assetUploadLatency.WithLabelValues(folder).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(uploadCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s timed out after %s", models.ErrUpload, localFilePath, u.timeout)
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrUpload, localFilePath, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %s: empty response", models.ErrUpload, localFilePath)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s: %s", models.ErrUpload, localFilePath, result.Error.Message)
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return nil, fmt.Errorf("%w: %s: response missing url or public id", models.ErrUpload, localFilePath)
	}

	u.logger.Debug("asset uploaded", "path", localFilePath, "folder", folder, "asset_id", result.PublicID)
	return &UploadResult{URL: result.SecureURL, AssetID: result.PublicID}, nil
}

// Delete removes an uploaded asset. It is used to clean up after an insert
// that failed once the image was already stored.
func (u *CloudinaryUploader) Delete(ctx context.Context, assetID string) error {
	if assetID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	result, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: assetID})
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", assetID, err)
	}
	if result != nil && result.Error.Message != "" {
		return fmt.Errorf("failed to delete asset %s: %s", assetID, result.Error.Message)
	}
	return nil
}
