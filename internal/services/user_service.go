package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joshua-takyi/locals/internal/helpers"
	"github.com/joshua-takyi/locals/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dummyHash is compared against when no user matches an email, so a login
// for an unknown address costs the same as one with a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, _ := helpers.HashPassword("locals-unknown-user")
	return h
})

type UserService struct {
	userRepo       models.UserRepo
	favouritesRepo models.FavouriteRepo
	logger         *slog.Logger
}

func NewUserService(userRepo models.UserRepo, favouritesRepo models.FavouriteRepo, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo:       userRepo,
		favouritesRepo: favouritesRepo,
		logger:         logger,
	}
}

func (us *UserService) CreateUser(ctx context.Context, in models.SignupInput) (*models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = helpers.NormalizeEmail(in.Email)

	if err := models.Validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err)
	}

	if err := us.ensureEmailFree(ctx, in.Email, primitive.NilObjectID); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	token, err := helpers.GenerateAccessToken()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		AccessToken:  token,
	}

	created, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	us.logger.Info("user created", "user_id", created.ID.Hex())
	return created, nil
}

// Authenticate returns the user owning email when password matches. Every
// failure, unknown email or wrong password, is reported as models.ErrAuth.
func (us *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = helpers.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.ErrAuth
	}

	user, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			helpers.CheckPassword(password, dummyHash())
			return nil, models.ErrAuth
		}
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	if !helpers.CheckPassword(password, user.PasswordHash) {
		return nil, models.ErrAuth
	}
	return user, nil
}

func (us *UserService) FindByToken(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("empty token: %w", models.ErrNotFound)
	}
	return us.userRepo.GetUserByToken(ctx, token)
}

func (us *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if id.IsZero() {
		return nil, models.NewFieldError("id", "is invalid")
	}
	return us.userRepo.GetUserByID(ctx, id)
}

func (us *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return nil, models.NewFieldError("profile", "has no fields to update")
	}
	if upd.FirstName != nil {
		v := strings.TrimSpace(*upd.FirstName)
		upd.FirstName = &v
	}
	if upd.LastName != nil {
		v := strings.TrimSpace(*upd.LastName)
		upd.LastName = &v
	}
	if upd.Email != nil {
		v := helpers.NormalizeEmail(*upd.Email)
		upd.Email = &v
	}

	if err := models.Validate.Struct(upd); err != nil {
		return nil, models.NewValidationError(err)
	}

	fields := map[string]interface{}{}
	if upd.FirstName != nil {
		fields["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		fields["last_name"] = *upd.LastName
	}
	if upd.Email != nil {
		if err := us.ensureEmailFree(ctx, *upd.Email, id); err != nil {
			return nil, err
		}
		fields["email"] = *upd.Email
	}
	if upd.Password != nil {
		hash, err := helpers.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	updated, err := us.userRepo.UpdateUser(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateFavourites overwrites the user's favourites with venueIds.
func (us *UserService) UpdateFavourites(ctx context.Context, id primitive.ObjectID, venueIds []primitive.ObjectID) error {
	if err := us.favouritesRepo.SetFavourites(ctx, id, venueIds); err != nil {
		return fmt.Errorf("failed to update favourites: %w", err)
	}
	return nil
}

// ensureEmailFree fails with ErrConflict when email belongs to a user other than self.
func (us *UserService) ensureEmailFree(ctx context.Context, email string, self primitive.ObjectID) error {
	existing, err := us.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing.ID == self {
		return nil
	}
	return fmt.Errorf("email %s: %w", email, models.ErrConflict)
}
