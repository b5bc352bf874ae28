package container

import (
	"log/slog"

	"github.com/joshua-takyi/locals/internal/cache"
	"github.com/joshua-takyi/locals/internal/config"
	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"github.com/joshua-takyi/locals/internal/services"
)

// Repository is everything the services need from storage.
// *models.MongodbRepo satisfies it.
type Repository interface {
	models.UserRepo
	models.FavouriteRepo
	models.VenuesRepo
	models.CategoriesRepo
}

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *slog.Logger
	UserService       *services.UserService
	VenueService      *services.VenuesService
	FavouritesService *services.FavouriteService
	Seeder            *services.Seeder
}

// NewContainer creates a new dependency injection container
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	repo Repository,
	uploader helpers.AssetUploader,
	catalogCache *cache.Cache,
) *Container {
	userService := services.NewUserService(repo, repo, logger)
	venueService := services.NewVenuesService(repo, repo, uploader, catalogCache, logger)
	favouriteService := services.NewFavouriteService(repo, repo, userService)
	seeder := services.NewSeeder(repo, repo, uploader, catalogCache, cfg.SeedConcurrency, logger)

	return &Container{
		Config:            cfg,
		Logger:            logger,
		UserService:       userService,
		VenueService:      venueService,
		FavouritesService: favouriteService,
		Seeder:            seeder,
	}
}
