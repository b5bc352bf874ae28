package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/locals/internal/container"
	"github.com/joshua-takyi/locals/internal/handlers"
	"github.com/joshua-takyi/locals/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// maxUploadBody bounds POST /locals, which carries the venue image.
const maxUploadBody = 16 << 20

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	cfg := container.Config

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": "locals-api",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// sign-up and login are the only routes that check passwords
	limit := middleware.RateLimitPerIP(rate.Limit(cfg.AuthRatePerSec), cfg.AuthRateBurst)
	r.POST("/users", limit, handlers.CreateUser(container.UserService))
	r.POST("/sessions", limit, handlers.CreateSession(container.UserService))

	owner := r.Group("/:id")
	owner.Use(middleware.AuthMiddleware(container.UserService, container.Logger), middleware.OwnerOnly("id"))
	{
		owner.GET("/user", handlers.GetUser(container.UserService))
		owner.PUT("/user", handlers.UpdateUser(container.UserService))
		owner.GET("/favourites", handlers.GetFavourites(container.FavouritesService))
		owner.PUT("/favourites", handlers.UpdateFavourites(container.FavouritesService))
	}

	r.GET("/locals", handlers.ListVenues(container.VenueService))
	r.POST("/locals", middleware.MaxBodyBytes(maxUploadBody), handlers.CreateVenue(container.VenueService))
	r.GET("/locals/categories", handlers.ListCategories(container.VenueService))
	r.GET("/locals/:category", handlers.ListVenuesByCategory(container.VenueService))
	r.GET("/local/:id", handlers.GetVenue(container.VenueService))

	return r
}
