package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"github.com/joshua-takyi/locals/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedDataset(t *testing.T, venues []models.DatasetVenue, categories []models.DatasetCategory) *models.Dataset {
	t.Helper()
	dir := t.TempDir()
	touch := func(parts ...string) {
		path := filepath.Join(append([]string{dir, models.DatasetImagesDir}, parts...)...)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	folders := map[primitive.ObjectID]string{}
	for _, c := range categories {
		if !c.ID.IsZero() {
			folders[c.ID] = c.Name
		}
	}
	for _, v := range venues {
		folder := v.Category.Label
		if v.Category.IsReference() {
			folder = folders[v.Category.ID]
		}
		if v.Image != "" && folder != "" {
			touch(folder, v.Image)
		}
	}
	for _, c := range categories {
		touch("categories", c.Image)
	}
	return &models.Dataset{Dir: dir, Venues: venues, Categories: categories}
}

func TestSeederIsolatesFailedItems(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	up := &testutil.StubUploader{FailOn: map[string]bool{"b.png": true}}
	seeder := NewSeeder(repo, repo, up, nil, 4, discardLogger())

	ds := seedDataset(t,
		[]models.DatasetVenue{
			{Name: "A", Category: models.CategoryLabel("food"), Image: "a.png"},
			{Name: "B", Category: models.CategoryLabel("food"), Image: "b.png"},
			{Name: "C", Category: models.CategoryLabel("food"), Image: "c.png"},
			{Name: "D", Category: models.CategoryReference(primitive.NewObjectID()), Image: "d.png"},
		},
		[]models.DatasetCategory{{Name: "food", DisplayName: "Food", Image: "food.png"}},
	)

	report, err := seeder.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report.VenuesInserted != 2 || repo.VenueCount() != 2 {
		t.Fatalf("expected A and C stored, report=%d stored=%d", report.VenuesInserted, repo.VenueCount())
	}
	for _, name := range []string{"A", "C"} {
		if _, err := repo.GetVenueByName(context.Background(), name); err != nil {
			t.Fatalf("expected %s stored: %v", name, err)
		}
	}

	failures := map[string]string{}
	for _, f := range report.FailuresOf(SeedKindVenue) {
		failures[f.Name] = f.Stage
	}
	if failures["B"] != SeedStageUpload || failures["D"] != SeedStageImage || len(failures) != 2 {
		t.Fatalf("unexpected failures: %v", failures)
	}

	if report.CategoriesInserted != 1 || repo.CategoryCount() != 1 {
		t.Fatalf("expected the category stored")
	}
	for _, u := range up.Uploads() {
		switch filepath.Base(u.Path) {
		case "food.png":
			if u.Folder != helpers.CategoriesFolder {
				t.Fatalf("category image uploaded to %q", u.Folder)
			}
		default:
			if u.Folder != helpers.SeedLocalsFolder {
				t.Fatalf("venue image uploaded to %q", u.Folder)
			}
		}
	}
}

func TestSeederLinksVenuesToReferencedCategories(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	ctx := context.Background()
	seeder := NewSeeder(repo, repo, &testutil.StubUploader{}, nil, 4, discardLogger())

	foodID := primitive.NewObjectID()
	ds := seedDataset(t,
		[]models.DatasetVenue{
			{Name: "Deli", Category: models.CategoryLabel("food"), Image: "deli.png"},
			{Name: "Bistro", Category: models.CategoryReference(foodID), Image: "bistro.png"},
		},
		[]models.DatasetCategory{{ID: foodID, Name: "food", DisplayName: "Food", Image: "food.png"}},
	)

	report, err := seeder.Run(ctx, ds)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report.VenuesInserted != 2 || report.CategoriesInserted != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	cat, err := repo.GetCategoryByName(ctx, "food")
	if err != nil || cat.ID != foodID {
		t.Fatalf("expected category stored under its dataset id, got %v, %v", cat, err)
	}

	vs := NewVenuesService(repo, repo, &testutil.StubUploader{}, nil, discardLogger())
	listed, err := vs.ListVenuesByCategory(ctx, "food")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := map[string]string{}
	for _, v := range listed {
		names[v.Name] = v.Category.Name
	}
	if len(names) != 2 {
		t.Fatalf("expected Deli and Bistro under food, got %v", names)
	}
	if names["Bistro"] != "food" {
		t.Fatalf("expected Bistro category resolved to food, got %q", names["Bistro"])
	}
}

func TestSeederClearsExistingData(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	ctx := context.Background()
	if _, err := repo.CreateVenue(ctx, &models.Venue{Name: "Old", Category: models.CategoryLabel("food")}); err != nil {
		t.Fatalf("create venue: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, &models.Category{Name: "old"}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	seeder := NewSeeder(repo, repo, &testutil.StubUploader{}, nil, 2, discardLogger())
	ds := seedDataset(t, []models.DatasetVenue{{Name: "New", Category: models.CategoryLabel("food"), Image: "n.png"}}, nil)

	if _, err := seeder.Run(ctx, ds); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.GetVenueByName(ctx, "Old"); err == nil {
		t.Fatalf("expected previous venues cleared")
	}
	if repo.VenueCount() != 1 || repo.CategoryCount() != 0 {
		t.Fatalf("unexpected counts venues=%d categories=%d", repo.VenueCount(), repo.CategoryCount())
	}
}

func TestSeederBoundsConcurrency(t *testing.T) {
	repo := testutil.NewMemoryRepo()
	up := &testutil.StubUploader{Delay: 20 * time.Millisecond}
	const limit = 3
	seeder := NewSeeder(repo, repo, up, nil, limit, discardLogger())

	var venues []models.DatasetVenue
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		venues = append(venues, models.DatasetVenue{Name: name, Category: models.CategoryLabel("food"), Image: name + ".png"})
	}
	ds := seedDataset(t, venues, nil)

	report, err := seeder.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report.VenuesInserted != len(venues) {
		t.Fatalf("expected all venues stored, got %d", report.VenuesInserted)
	}
	if got := up.MaxInFlight(); got > limit {
		t.Fatalf("expected at most %d uploads in flight, saw %d", limit, got)
	}
}
