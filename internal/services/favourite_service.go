package services

import (
	"context"
	"fmt"

	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FavouriteService struct {
	favouritesRepo models.FavouriteRepo
	venuesRepo     models.VenuesRepo
	userService    *UserService
}

func NewFavouriteService(favouritesRepo models.FavouriteRepo, venuesRepo models.VenuesRepo, userService *UserService) *FavouriteService {
	return &FavouriteService{
		favouritesRepo: favouritesRepo,
		venuesRepo:     venuesRepo,
		userService:    userService,
	}
}

func (fs *FavouriteService) GetFavourites(ctx context.Context, userId primitive.ObjectID) ([]primitive.ObjectID, error) {
	if userId.IsZero() {
		return nil, fmt.Errorf("invalid user ID: %w", models.ErrValidation)
	}
	return fs.favouritesRepo.GetFavourites(ctx, userId)
}

// ReplaceFavourites overwrites the favourites of userId. Ids are not checked
// against existing venues; duplicates keep their first position.
func (fs *FavouriteService) ReplaceFavourites(ctx context.Context, userId primitive.ObjectID, venueIds []string) ([]primitive.ObjectID, error) {
	if userId.IsZero() {
		return nil, fmt.Errorf("invalid user ID: %w", models.ErrValidation)
	}

	ids := make([]primitive.ObjectID, 0, len(venueIds))
	seen := make(map[primitive.ObjectID]struct{}, len(venueIds))
	for i, raw := range venueIds {
		id, err := primitive.ObjectIDFromHex(helpers.StringTrim(raw))
		if err != nil {
			return nil, models.NewFieldError(fmt.Sprintf("favourites[%d]", i), "is not a valid id")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if err := fs.userService.UpdateFavourites(ctx, userId, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ExpandFavourites resolves the favourites of userId into venues, in list
// order. Ids whose venue no longer exists are skipped.
func (fs *FavouriteService) ExpandFavourites(ctx context.Context, userId primitive.ObjectID) ([]*models.Venue, error) {
	ids, err := fs.GetFavourites(ctx, userId)
	if err != nil {
		return nil, err
	}

	venues, err := fs.venuesRepo.ListVenuesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load favourite venues: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	out := make([]*models.Venue, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}
