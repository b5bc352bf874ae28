package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/locals/internal/cache"
	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VenuesService struct {
	venuesRepo     models.VenuesRepo
	categoriesRepo models.CategoriesRepo
	uploader       helpers.AssetUploader
	cache          *cache.Cache
	logger         *slog.Logger
}

func NewVenuesService(venuesRepo models.VenuesRepo, categoriesRepo models.CategoriesRepo, uploader helpers.AssetUploader, c *cache.Cache, logger *slog.Logger) *VenuesService {
	return &VenuesService{
		venuesRepo:     venuesRepo,
		categoriesRepo: categoriesRepo,
		uploader:       uploader,
		cache:          c,
		logger:         logger,
	}
}

// CreateVenue uploads the image at imagePath and stores venue with the
// resulting URL. A venue whose name is already taken fails with ErrConflict
// before anything is uploaded.
func (vs *VenuesService) CreateVenue(ctx context.Context, venue *models.Venue, imagePath string) (*models.Venue, error) {
	if venue == nil {
		return nil, models.NewFieldError("venue", "is required")
	}
	venue.Name = strings.TrimSpace(venue.Name)
	venue.Tagline = strings.TrimSpace(venue.Tagline)
	venue.Category.Label = strings.TrimSpace(venue.Category.Label)

	if venue.Category.IsZero() {
		return nil, models.NewFieldError("category", "is required")
	}
	if err := models.Validate.Struct(venue); err != nil {
		return nil, models.NewValidationError(err)
	}
	if strings.TrimSpace(imagePath) == "" {
		return nil, models.NewFieldError("img_url", "is required")
	}

	if _, err := vs.venuesRepo.GetVenueByName(ctx, venue.Name); err == nil {
		return nil, fmt.Errorf("venue %q: %w", venue.Name, models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check venue name: %w", err)
	}

	asset, err := vs.uploader.Upload(ctx, imagePath, helpers.LocalsFolder, helpers.LogoTransform)
	if err != nil {
		return nil, err
	}
	venue.ImageURL = asset.URL
	venue.ImageAssetID = asset.AssetID

	created, err := vs.venuesRepo.CreateVenue(ctx, venue)
	if err != nil {
		// lost a race on the unique name, or the insert failed outright
		if delErr := vs.uploader.Delete(ctx, asset.AssetID); delErr != nil {
			vs.logger.Warn("failed to remove orphaned asset", "asset_id", asset.AssetID, "error", delErr)
		}
		return nil, err
	}

	vs.cache.Invalidate(ctx)
	if err := vs.resolveCategories(ctx, []*models.Venue{created}); err != nil {
		vs.logger.Warn("failed to resolve category of new venue", "venue_id", created.ID.Hex(), "error", err)
	}
	vs.logger.Info("venue created", "venue_id", created.ID.Hex(), "name", created.Name)
	return created, nil
}

func (vs *VenuesService) ListVenues(ctx context.Context) ([]*models.Venue, error) {
	return cache.GetOrLoadJSON(ctx, vs.cache, cache.Key("venues"), func(ctx context.Context) ([]*models.Venue, error) {
		venues, err := vs.venuesRepo.ListVenues(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list venues: %w", err)
		}
		if err := vs.resolveCategories(ctx, venues); err != nil {
			return nil, err
		}
		return venues, nil
	})
}

func (vs *VenuesService) GetVenueByID(ctx context.Context, id primitive.ObjectID) (*models.Venue, error) {
	if id.IsZero() {
		return nil, models.NewFieldError("id", "is invalid")
	}
	venue, err := vs.venuesRepo.GetVenueByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := vs.resolveCategories(ctx, []*models.Venue{venue}); err != nil {
		return nil, err
	}
	return venue, nil
}

// ListVenuesByCategory returns venues labelled with category or referencing
// the category document of that name. No match is an empty list.
func (vs *VenuesService) ListVenuesByCategory(ctx context.Context, category string) ([]*models.Venue, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, models.NewFieldError("category", "is required")
	}

	return cache.GetOrLoadJSON(ctx, vs.cache, cache.Key("category", category), func(ctx context.Context) ([]*models.Venue, error) {
		var categoryID *primitive.ObjectID
		cat, err := vs.categoriesRepo.GetCategoryByName(ctx, category)
		switch {
		case err == nil:
			categoryID = &cat.ID
		case errors.Is(err, models.ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to look up category: %w", err)
		}

		venues, err := vs.venuesRepo.ListVenuesByCategory(ctx, category, categoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to list venues by category: %w", err)
		}
		if err := vs.resolveCategories(ctx, venues); err != nil {
			return nil, err
		}
		return venues, nil
	})
}

func (vs *VenuesService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return cache.GetOrLoadJSON(ctx, vs.cache, cache.Key("categories"), func(ctx context.Context) ([]*models.Category, error) {
		categories, err := vs.categoriesRepo.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		return categories, nil
	})
}

// resolveCategories fills in the name of every referenced category.
func (vs *VenuesService) resolveCategories(ctx context.Context, venues []*models.Venue) error {
	needed := false
	for _, v := range venues {
		if v.Category.IsReference() {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	categories, err := vs.categoriesRepo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve categories: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	for _, v := range venues {
		if v.Category.IsReference() {
			v.Category.Name = names[v.Category.ID]
		}
	}
	return nil
}
