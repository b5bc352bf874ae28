// Package testutil holds in-memory stand-ins for the MongoDB repository and
// the asset host, shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joshua-takyi/locals/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo implements every repository interface over maps. It enforces
// the same unique keys as the MongoDB indexes.
type MemoryRepo struct {
	mu         sync.Mutex
	users      map[primitive.ObjectID]models.User
	venues     map[primitive.ObjectID]models.Venue
	categories map[primitive.ObjectID]models.Category
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[primitive.ObjectID]models.User),
		venues:     make(map[primitive.ObjectID]models.Venue),
		categories: make(map[primitive.ObjectID]models.Category),
	}
}

func copyUser(u models.User) *models.User {
	u.Favourites = append([]primitive.ObjectID{}, u.Favourites...)
	return &u
}

func (m *MemoryRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := user.BeforeCreate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.AccessToken == user.AccessToken {
			return nil, fmt.Errorf("user %s: %w", user.Email, models.ErrConflict)
		}
	}
	m.users[user.ID] = *copyUser(*user)
	return user, nil
}

func (m *MemoryRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.ID == id })
}

func (m *MemoryRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *MemoryRepo) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.AccessToken == token })
}

func (m *MemoryRepo) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user: %w", models.ErrNotFound)
}

func (m *MemoryRepo) UpdateUser(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), models.ErrNotFound)
	}
	for k, v := range fields {
		switch k {
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "email":
			email := v.(string)
			for otherID, other := range m.users {
				if otherID != id && other.Email == email {
					return nil, fmt.Errorf("email %s: %w", email, models.ErrConflict)
				}
			}
			u.Email = email
		case "password_hash":
			u.PasswordHash = v.(string)
		case "favourites":
			u.Favourites = append([]primitive.ObjectID{}, v.([]primitive.ObjectID)...)
		default:
			return nil, fmt.Errorf("unknown user field %q", k)
		}
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return copyUser(u), nil
}

func (m *MemoryRepo) GetFavourites(ctx context.Context, userId primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userId]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userId.Hex(), models.ErrNotFound)
	}
	return append([]primitive.ObjectID{}, u.Favourites...), nil
}

func (m *MemoryRepo) SetFavourites(ctx context.Context, userId primitive.ObjectID, venueIds []primitive.ObjectID) error {
	_, err := m.UpdateUser(ctx, userId, map[string]interface{}{"favourites": venueIds})
	return err
}

// UserCount is the number of stored users.
func (m *MemoryRepo) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *MemoryRepo) CreateVenue(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	if err := venue.BeforeCreate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.venues {
		if v.Name == venue.Name {
			return nil, fmt.Errorf("venue %q: %w", venue.Name, models.ErrConflict)
		}
	}
	stored := *venue
	stored.Category.Name = ""
	m.venues[venue.ID] = stored
	return venue, nil
}

func (m *MemoryRepo) GetVenueByID(ctx context.Context, id primitive.ObjectID) (*models.Venue, error) {
	return m.findVenue(func(v models.Venue) bool { return v.ID == id })
}

func (m *MemoryRepo) GetVenueByName(ctx context.Context, name string) (*models.Venue, error) {
	return m.findVenue(func(v models.Venue) bool { return v.Name == name })
}

func (m *MemoryRepo) findVenue(match func(models.Venue) bool) (*models.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.venues {
		if match(v) {
			out := v
			return &out, nil
		}
	}
	return nil, fmt.Errorf("venue: %w", models.ErrNotFound)
}

func (m *MemoryRepo) ListVenues(ctx context.Context) ([]*models.Venue, error) {
	return m.filterVenues(func(models.Venue) bool { return true }), nil
}

func (m *MemoryRepo) ListVenuesByCategory(ctx context.Context, name string, categoryID *primitive.ObjectID) ([]*models.Venue, error) {
	return m.filterVenues(func(v models.Venue) bool {
		if v.Category.IsReference() {
			return categoryID != nil && v.Category.ID == *categoryID
		}
		return v.Category.Label == name
	}), nil
}

func (m *MemoryRepo) ListVenuesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Venue, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return m.filterVenues(func(v models.Venue) bool { return want[v.ID] }), nil
}

func (m *MemoryRepo) filterVenues(match func(models.Venue) bool) []*models.Venue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Venue{}
	for _, v := range m.venues {
		if match(v) {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *MemoryRepo) DeleteAllVenues(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues = make(map[primitive.ObjectID]models.Venue)
	return nil
}

// VenueCount is the number of stored venues.
func (m *MemoryRepo) VenueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.venues)
}

func (m *MemoryRepo) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := category.BeforeCreate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == category.Name {
			return nil, fmt.Errorf("category %q: %w", category.Name, models.ErrConflict)
		}
	}
	m.categories[category.ID] = *category
	return category, nil
}

func (m *MemoryRepo) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			out := c
			return &out, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, models.ErrNotFound)
}

func (m *MemoryRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Category{}
	for _, c := range m.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepo) DeleteAllCategories(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = make(map[primitive.ObjectID]models.Category)
	return nil
}

// CategoryCount is the number of stored categories.
func (m *MemoryRepo) CategoryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories)
}
