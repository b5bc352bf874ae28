package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DatasetVenuesFile     = "locals.json"
	DatasetCategoriesFile = "categories.json"
	DatasetImagesDir      = "images"
	categoryImagesFolder  = "categories"
)

// DatasetVenue is one entry of locals.json. Image is a file name inside the
// images folder of the venue's category; Folder overrides that folder. A
// venue referencing a category by id uses the folder named after that
// category, so the id must match an entry of categories.json unless Folder
// is set.
type DatasetVenue struct {
	Category      CategoryRef `json:"category"`
	Folder        string      `json:"folder,omitempty"`
	Name          string      `json:"name"`
	Tagline       string      `json:"tagline"`
	Image         string      `json:"image"`
	StreetAddress string      `json:"streetAddress,omitempty"`
	ZipCode       string      `json:"zipCode,omitempty"`
	Longitude     *float64    `json:"longitude,omitempty"`
	Latitude      *float64    `json:"latitude,omitempty"`
	PhoneNumber   string      `json:"phoneNumber,omitempty"`
	Email         string      `json:"email,omitempty"`
	WebShopURL    string      `json:"webShopUrl,omitempty"`
	BookingURL    string      `json:"bookingUrl,omitempty"`
	ExternalURL   string      `json:"url,omitempty"`
}

// DatasetCategory is one entry of categories.json. ID is kept on insert so
// venues in locals.json can reference the category by it.
type DatasetCategory struct {
	ID          primitive.ObjectID `json:"id,omitempty"`
	Name        string             `json:"name"`
	DisplayName string             `json:"displayName"`
	Image       string             `json:"image"`
}

type Dataset struct {
	Dir        string
	Venues     []DatasetVenue
	Categories []DatasetCategory
}

// LoadDataset reads locals.json and categories.json from dir. A missing file
// yields an empty batch; a malformed one is an error.
func LoadDataset(dir string) (*Dataset, error) {
	ds := &Dataset{Dir: dir}
	if err := readDatasetFile(filepath.Join(dir, DatasetVenuesFile), &ds.Venues); err != nil {
		return nil, err
	}
	if err := readDatasetFile(filepath.Join(dir, DatasetCategoriesFile), &ds.Categories); err != nil {
		return nil, err
	}
	return ds, nil
}

func readDatasetFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read dataset file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse dataset file %s: %w", path, err)
	}
	return nil
}

func (ds *Dataset) VenueImagePath(v DatasetVenue) (string, error) {
	folder := v.Folder
	if folder == "" {
		if v.Category.IsReference() {
			c, ok := ds.categoryByID(v.Category.ID)
			if !ok {
				return "", fmt.Errorf("venue %q references unknown category %s and has no image folder", v.Name, v.Category.ID.Hex())
			}
			folder = c.Name
		} else {
			folder = v.Category.Label
		}
	}
	if folder == "" || v.Image == "" {
		return "", fmt.Errorf("venue %q has no image", v.Name)
	}
	return filepath.Join(ds.Dir, DatasetImagesDir, folder, v.Image), nil
}

func (ds *Dataset) categoryByID(id primitive.ObjectID) (DatasetCategory, bool) {
	for _, c := range ds.Categories {
		if !c.ID.IsZero() && c.ID == id {
			return c, true
		}
	}
	return DatasetCategory{}, false
}

func (ds *Dataset) CategoryImagePath(c DatasetCategory) (string, error) {
	if c.Image == "" {
		return "", fmt.Errorf("category %q has no image", c.Name)
	}
	return filepath.Join(ds.Dir, DatasetImagesDir, categoryImagesFolder, c.Image), nil
}

func (v DatasetVenue) ToVenue() *Venue {
	venue := &Venue{
		Category:      v.Category,
		Name:          v.Name,
		Tagline:       v.Tagline,
		StreetAddress: v.StreetAddress,
		ZipCode:       v.ZipCode,
		PhoneNumber:   v.PhoneNumber,
		Email:         v.Email,
		WebShopURL:    v.WebShopURL,
		BookingURL:    v.BookingURL,
		ExternalURL:   v.ExternalURL,
	}
	if v.Longitude != nil && v.Latitude != nil {
		venue.Geolocation = NewPoint(*v.Longitude, *v.Latitude)
	}
	return venue
}

func (c DatasetCategory) ToCategory() *Category {
	display := c.DisplayName
	if display == "" {
		display = c.Name
	}
	return &Category{ID: c.ID, Name: c.Name, DisplayName: display}
}
