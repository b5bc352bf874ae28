package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joshua-takyi/locals/internal/cache"
	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	SeedKindVenue    = "venue"
	SeedKindCategory = "category"

	SeedStageImage  = "image"
	SeedStageUpload = "upload"
	SeedStageInsert = "insert"
)

type SeedFailure struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// SeedReport collects per-item outcomes. Items finish in any order, so
// failures are keyed by item name rather than position.
type SeedReport struct {
	mu                 sync.Mutex
	VenuesInserted     int           `json:"venuesInserted"`
	CategoriesInserted int           `json:"categoriesInserted"`
	Failures           []SeedFailure `json:"failures"`
	Duration           time.Duration `json:"duration"`
}

func (r *SeedReport) inserted(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == SeedKindVenue {
		r.VenuesInserted++
	} else {
		r.CategoriesInserted++
	}
}

func (r *SeedReport) failed(kind, name, stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, SeedFailure{Kind: kind, Name: name, Stage: stage, Error: err.Error()})
}

// FailuresOf returns the failures recorded for kind.
func (r *SeedReport) FailuresOf(kind string) []SeedFailure {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SeedFailure
	for _, f := range r.Failures {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Seeder repopulates the venue and category collections from a dataset.
type Seeder struct {
	venuesRepo     models.VenuesRepo
	categoriesRepo models.CategoriesRepo
	uploader       helpers.AssetUploader
	cache          *cache.Cache
	concurrency    int
	logger         *slog.Logger
}

func NewSeeder(venuesRepo models.VenuesRepo, categoriesRepo models.CategoriesRepo, uploader helpers.AssetUploader, c *cache.Cache, concurrency int, logger *slog.Logger) *Seeder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Seeder{
		venuesRepo:     venuesRepo,
		categoriesRepo: categoriesRepo,
		uploader:       uploader,
		cache:          c,
		concurrency:    concurrency,
		logger:         logger,
	}
}

// Run clears both collections, then seeds venues and categories as two
// concurrent batches. Within a batch every item is uploaded and inserted
// independently; one item failing never stops the others. Only a failure to
// clear the collections is returned as an error.
func (s *Seeder) Run(ctx context.Context, ds *models.Dataset) (*SeedReport, error) {
	if ds == nil {
		return nil, fmt.Errorf("seed dataset is nil")
	}
	start := time.Now()

	if err := s.venuesRepo.DeleteAllVenues(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear venues: %w", err)
	}
	if err := s.categoriesRepo.DeleteAllCategories(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear categories: %w", err)
	}

	report := &SeedReport{}
	var batches errgroup.Group
	batches.Go(func() error {
		s.seedVenues(ctx, ds, report)
		return nil
	})
	batches.Go(func() error {
		s.seedCategories(ctx, ds, report)
		return nil
	})
	_ = batches.Wait()

	s.cache.Invalidate(ctx)
	report.Duration = time.Since(start)

	s.logger.Info("seeding finished",
		"venues_inserted", report.VenuesInserted,
		"categories_inserted", report.CategoriesInserted,
		"failures", len(report.Failures),
		"duration", report.Duration,
	)
	return report, nil
}

func (s *Seeder) seedVenues(ctx context.Context, ds *models.Dataset, report *SeedReport) {
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, entry := range ds.Venues {
		g.Go(func() error {
			s.seedVenue(ctx, ds, entry, report)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Seeder) seedVenue(ctx context.Context, ds *models.Dataset, entry models.DatasetVenue, report *SeedReport) {
	fail := func(stage string, err error) {
		s.logger.Warn("venue not seeded", "name", entry.Name, "stage", stage, "error", err)
		report.failed(SeedKindVenue, entry.Name, stage, err)
	}

	path, err := ds.VenueImagePath(entry)
	if err != nil {
		fail(SeedStageImage, err)
		return
	}
	asset, err := s.uploader.Upload(ctx, path, helpers.SeedLocalsFolder, helpers.LogoTransform)
	if err != nil {
		fail(SeedStageUpload, err)
		return
	}

	venue := entry.ToVenue()
	venue.ImageURL = asset.URL
	venue.ImageAssetID = asset.AssetID
	if _, err := s.venuesRepo.CreateVenue(ctx, venue); err != nil {
		s.removeAsset(ctx, asset.AssetID)
		fail(SeedStageInsert, err)
		return
	}
	report.inserted(SeedKindVenue)
}

func (s *Seeder) seedCategories(ctx context.Context, ds *models.Dataset, report *SeedReport) {
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, entry := range ds.Categories {
		g.Go(func() error {
			s.seedCategory(ctx, ds, entry, report)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Seeder) seedCategory(ctx context.Context, ds *models.Dataset, entry models.DatasetCategory, report *SeedReport) {
	fail := func(stage string, err error) {
		s.logger.Warn("category not seeded", "name", entry.Name, "stage", stage, "error", err)
		report.failed(SeedKindCategory, entry.Name, stage, err)
	}

	path, err := ds.CategoryImagePath(entry)
	if err != nil {
		fail(SeedStageImage, err)
		return
	}
	asset, err := s.uploader.Upload(ctx, path, helpers.CategoriesFolder, helpers.LogoTransform)
	if err != nil {
		fail(SeedStageUpload, err)
		return
	}

	category := entry.ToCategory()
	category.ImageURL = asset.URL
	category.ImageAssetID = asset.AssetID
	if _, err := s.categoriesRepo.CreateCategory(ctx, category); err != nil {
		s.removeAsset(ctx, asset.AssetID)
		fail(SeedStageInsert, err)
		return
	}
	report.inserted(SeedKindCategory)
}

func (s *Seeder) removeAsset(ctx context.Context, assetID string) {
	if err := s.uploader.Delete(ctx, assetID); err != nil {
		s.logger.Warn("failed to remove orphaned asset", "asset_id", assetID, "error", err)
	}
}
