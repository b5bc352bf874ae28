package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/locals/internal/models"
	"github.com/joshua-takyi/locals/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const venueImageField = "img_url"

type venueForm struct {
	Name          string   `form:"name"`
	Tagline       string   `form:"tagline"`
	Category      string   `form:"category"`
	CategoryID    string   `form:"categoryId"`
	StreetAddress string   `form:"streetAddress"`
	ZipCode       string   `form:"zipCode"`
	Longitude     *float64 `form:"longitude"`
	Latitude      *float64 `form:"latitude"`
	PhoneNumber   string   `form:"phoneNumber"`
	Email         string   `form:"email"`
	WebShopURL    string   `form:"webShopUrl"`
	BookingURL    string   `form:"bookingUrl"`
	ExternalURL   string   `form:"url"`
}

func (f venueForm) toVenue() (*models.Venue, error) {
	venue := &models.Venue{
		Name:          f.Name,
		Tagline:       f.Tagline,
		StreetAddress: strings.TrimSpace(f.StreetAddress),
		ZipCode:       strings.TrimSpace(f.ZipCode),
		PhoneNumber:   strings.TrimSpace(f.PhoneNumber),
		Email:         strings.TrimSpace(f.Email),
		WebShopURL:    strings.TrimSpace(f.WebShopURL),
		BookingURL:    strings.TrimSpace(f.BookingURL),
		ExternalURL:   strings.TrimSpace(f.ExternalURL),
	}
	if id := strings.TrimSpace(f.CategoryID); id != "" {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, models.NewFieldError("categoryId", "is not a valid id")
		}
		venue.Category = models.CategoryReference(oid)
	} else {
		venue.Category = models.CategoryLabel(f.Category)
	}
	if f.Longitude != nil && f.Latitude != nil {
		venue.Geolocation = models.NewPoint(*f.Longitude, *f.Latitude)
	}
	return venue, nil
}

// CreateVenue accepts a multipart form with the venue fields and its image in
// img_url. A venue whose name is taken is answered with 200 and a message.
func CreateVenue(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form venueForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid form data"))
			return
		}
		venue, err := form.toVenue()
		if err != nil {
			respondError(c, err)
			return
		}

		file, err := c.FormFile(venueImageField)
		if err != nil {
			respondError(c, models.NewFieldError(venueImageField, "is required"))
			return
		}

		tmp, err := os.CreateTemp("", "locals-upload-*"+filepath.Ext(file.Filename))
		if err != nil {
			respondError(c, err)
			return
		}
		tmpPath := tmp.Name()
		tmp.Close()
		defer os.Remove(tmpPath)

		if err := c.SaveUploadedFile(file, tmpPath); err != nil {
			respondError(c, err)
			return
		}

		created, err := v.CreateVenue(c.Request.Context(), venue, tmpPath)
		if err != nil {
			if errors.Is(err, models.ErrConflict) {
				c.JSON(http.StatusOK, gin.H{"message": "already exists"})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, created)
	}
}

func ListVenues(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		venues, err := v.ListVenues(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, venues)
	}
}

func GetVenue(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramObjectID(c, "id")
		if !ok {
			return
		}
		venue, err := v.GetVenueByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, venue)
	}
}

func ListVenuesByCategory(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		venues, err := v.ListVenuesByCategory(c.Request.Context(), c.Param("category"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, venues)
	}
}

func ListCategories(v *services.VenuesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := v.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}
