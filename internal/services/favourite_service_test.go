package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/locals/internal/models"
	"github.com/joshua-takyi/locals/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReplaceThenGetFavourites(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	us := newUserService(repo)
	fs := NewFavouriteService(repo, repo, us)
	ctx := context.Background()

	user, err := us.CreateUser(ctx, signup("Ann", "Lee", "ann@x.com", "secret1"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	venue, err := repo.CreateVenue(ctx, &models.Venue{Name: "Cafe A", Category: models.CategoryLabel("cafe")})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	stale := primitive.NewObjectID()

	saved, err := fs.ReplaceFavourites(ctx, user.ID, []string{venue.ID.Hex(), stale.Hex(), venue.ID.Hex()})
	if err != nil {
		t.Fatalf("replace favourites: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected duplicates dropped, got %v", saved)
	}

	got, err := fs.GetFavourites(ctx, user.ID)
	if err != nil {
		t.Fatalf("get favourites: %v", err)
	}
	if len(got) != 2 || got[0] != venue.ID || got[1] != stale {
		t.Fatalf("expected stored list to round trip, got %v", got)
	}

	venues, err := fs.ExpandFavourites(ctx, user.ID)
	if err != nil {
		t.Fatalf("expand favourites: %v", err)
	}
	if len(venues) != 1 || venues[0].ID != venue.ID {
		t.Fatalf("expected only the existing venue, got %v", venues)
	}

	if _, err := fs.ReplaceFavourites(ctx, user.ID, []string{}); err != nil {
		t.Fatalf("clear favourites: %v", err)
	}
	got, err = fs.GetFavourites(ctx, user.ID)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty favourites, got %v, %v", got, err)
	}
}

func TestReplaceFavouritesRejectsMalformedIDs(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	us := newUserService(repo)
	fs := NewFavouriteService(repo, repo, us)
	ctx := context.Background()

	user, err := us.CreateUser(ctx, signup("Ann", "Lee", "ann@x.com", "secret1"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	before := primitive.NewObjectID()
	if _, err := fs.ReplaceFavourites(ctx, user.ID, []string{before.Hex()}); err != nil {
		t.Fatalf("replace favourites: %v", err)
	}

	if _, err := fs.ReplaceFavourites(ctx, user.ID, []string{"not-an-id"}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := fs.GetFavourites(ctx, user.ID)
	if len(got) != 1 || got[0] != before {
		t.Fatalf("expected favourites untouched after a rejected update, got %v", got)
	}
}

func TestFavouritesUnknownUser(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	fs := NewFavouriteService(repo, repo, newUserService(repo))

	if _, err := fs.GetFavourites(context.Background(), primitive.NewObjectID()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := fs.ReplaceFavourites(context.Background(), primitive.NewObjectID(), nil); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
