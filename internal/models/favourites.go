package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Favourites live on the user document as a list of venue ids. Entries are
// references only and may point at venues that no longer exist.
type FavouriteRepo interface {
	GetFavourites(ctx context.Context, userId primitive.ObjectID) ([]primitive.ObjectID, error)
	SetFavourites(ctx context.Context, userId primitive.ObjectID, venueIds []primitive.ObjectID) error
}

func (mdb *MongodbRepo) GetFavourites(ctx context.Context, userId primitive.ObjectID) ([]primitive.ObjectID, error) {
	col, err := mdb.GetCollection(UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.FindOne().SetProjection(bson.M{"favourites": 1})

	var result struct {
		Favourites []primitive.ObjectID `bson:"favourites"`
	}
	if err := col.FindOne(ctx, bson.M{"_id": userId}, opts).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", userId.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("error finding favourites: %v", err)
	}
	if result.Favourites == nil {
		return []primitive.ObjectID{}, nil
	}
	return result.Favourites, nil
}

func (mdb *MongodbRepo) SetFavourites(ctx context.Context, userId primitive.ObjectID, venueIds []primitive.ObjectID) error {
	col, err := mdb.GetCollection(UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if venueIds == nil {
		venueIds = []primitive.ObjectID{}
	}

	update := bson.M{
		"$set": bson.M{
			"favourites": venueIds,
			"updated_at": time.Now().UTC(),
		},
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": userId}, update)
	if err != nil {
		return fmt.Errorf("error replacing favourites: %v", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userId.Hex(), ErrNotFound)
	}
	return nil
}
