package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName    string               `bson:"first_name" json:"firstName"`
	LastName     string               `bson:"last_name" json:"lastName"`
	Email        string               `bson:"email" json:"email"` // stored lowercase
	PasswordHash string               `bson:"password_hash" json:"-"`
	AccessToken  string               `bson:"access_token" json:"-"`
	Favourites   []primitive.ObjectID `bson:"favourites" json:"favourites"`
	CreatedAt    time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updatedAt"`
}

type SignupInput struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// ProfileUpdate holds the profile fields a user may change. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=2"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=2"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Password == nil
}

// Session is the login payload: the profile plus the existing access token.
type Session struct {
	ID          primitive.ObjectID   `json:"id"`
	AccessToken string               `json:"accessToken"`
	FirstName   string               `json:"firstName"`
	LastName    string               `json:"lastName"`
	Favourites  []primitive.ObjectID `json:"favourites"`
}

func (u *User) Session() Session {
	favs := u.Favourites
	if favs == nil {
		favs = []primitive.ObjectID{}
	}
	return Session{
		ID:          u.ID,
		AccessToken: u.AccessToken,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Favourites:  favs,
	}
}
