package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoPoint is a GeoJSON point; Coordinates holds [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewPoint(longitude, latitude float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (p *GeoPoint) Longitude() float64 {
	if p == nil || len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p *GeoPoint) Latitude() float64 {
	if p == nil || len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Venue is a "local": a business or place listed in the directory.
type Venue struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category     CategoryRef        `bson:"category" json:"category"`
	Name         string             `bson:"name" json:"name" validate:"required"`
	Tagline      string             `bson:"tagline" json:"tagline"`
	ImageURL     string             `bson:"image_url" json:"imageUrl"`
	ImageAssetID string             `bson:"image_asset_id" json:"imageAssetId"`

	// CONTACT & LOCATION
	StreetAddress string    `bson:"street_address,omitempty" json:"streetAddress,omitempty"`
	ZipCode       string    `bson:"zip_code,omitempty" json:"zipCode,omitempty"`
	Geolocation   *GeoPoint `bson:"geolocation,omitempty" json:"geolocation,omitempty"`
	PhoneNumber   string    `bson:"phone_number,omitempty" json:"phoneNumber,omitempty"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`

	// LINKS
	WebShopURL  string `bson:"web_shop_url,omitempty" json:"webShopUrl,omitempty" validate:"omitempty,url"`
	BookingURL  string `bson:"booking_url,omitempty" json:"bookingUrl,omitempty" validate:"omitempty,url"`
	ExternalURL string `bson:"external_url,omitempty" json:"externalUrl,omitempty" validate:"omitempty,url"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (v *Venue) BeforeCreate() error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	return nil
}
