package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	venues := `[
		{"name": "Deli", "category": "food", "image": "deli.png", "longitude": 11.8, "latitude": 57.7},
		{"name": "Bistro", "category": {"id": "64b7f3c2a1b2c3d4e5f60718"}, "folder": "food", "image": "bistro.png"}
	]`
	if err := os.WriteFile(filepath.Join(dir, DatasetVenuesFile), []byte(venues), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ds, err := LoadDataset(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Venues) != 2 || len(ds.Categories) != 0 {
		t.Fatalf("unexpected dataset sizes: %d venues, %d categories", len(ds.Venues), len(ds.Categories))
	}

	deli := ds.Venues[0]
	path, err := ds.VenueImagePath(deli)
	if err != nil || path != filepath.Join(dir, "images", "food", "deli.png") {
		t.Fatalf("unexpected image path %q, %v", path, err)
	}
	v := deli.ToVenue()
	if v.Geolocation == nil || v.Geolocation.Longitude() != 11.8 || v.Geolocation.Latitude() != 57.7 {
		t.Fatalf("unexpected geolocation %+v", v.Geolocation)
	}

	bistro := ds.Venues[1]
	if !bistro.Category.IsReference() {
		t.Fatalf("expected bistro to reference a category")
	}
	if path, err := ds.VenueImagePath(bistro); err != nil || filepath.Base(filepath.Dir(path)) != "food" {
		t.Fatalf("expected folder override, got %q, %v", path, err)
	}
}

func TestVenueImagePathFollowsReferencedCategory(t *testing.T) {
	dir := t.TempDir()
	categories := `[{"id": "64b7f3c2a1b2c3d4e5f60718", "name": "food", "image": "food.png"}]`
	venues := `[{"name": "Bistro", "category": {"id": "64b7f3c2a1b2c3d4e5f60718"}, "image": "bistro.png"}]`
	if err := os.WriteFile(filepath.Join(dir, DatasetCategoriesFile), []byte(categories), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DatasetVenuesFile), []byte(venues), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ds, err := LoadDataset(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	path, err := ds.VenueImagePath(ds.Venues[0])
	if err != nil || path != filepath.Join(dir, "images", "food", "bistro.png") {
		t.Fatalf("unexpected image path %q, %v", path, err)
	}
	cat := ds.Categories[0].ToCategory()
	if cat.ID != ds.Venues[0].Category.ID {
		t.Fatalf("category id %s not kept, venue references %s", cat.ID.Hex(), ds.Venues[0].Category.ID.Hex())
	}
}

func TestLoadDatasetMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DatasetCategoriesFile), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadDataset(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestVenueImagePathNeedsFolderForReferences(t *testing.T) {
	ds := &Dataset{Dir: "data"}
	_, err := ds.VenueImagePath(DatasetVenue{Name: "X", Category: CategoryReference(primitive.NewObjectID()), Image: "x.png"})
	if err == nil {
		t.Fatalf("expected error without folder")
	}
	if _, err := ds.CategoryImagePath(DatasetCategory{Name: "food"}); err == nil {
		t.Fatalf("expected error for category without image")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError(Validate.Struct(SignupInput{FirstName: "A", LastName: "Lee", Email: "bad", Password: "secret1"}))
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["firstName"] == "" || verr.Fields["email"] == "" || len(verr.Fields) != 2 {
		t.Fatalf("unexpected fields %v", verr.Fields)
	}
}
