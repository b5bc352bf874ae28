package models

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VenuesRepo interface {
	CreateVenue(ctx context.Context, venue *Venue) (*Venue, error)
	GetVenueByID(ctx context.Context, id primitive.ObjectID) (*Venue, error)
	GetVenueByName(ctx context.Context, name string) (*Venue, error)
	ListVenues(ctx context.Context) ([]*Venue, error)
	// ListVenuesByCategory matches venues labelled with name, and venues
	// referencing categoryID when it is non-nil.
	ListVenuesByCategory(ctx context.Context, name string, categoryID *primitive.ObjectID) ([]*Venue, error)
	ListVenuesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Venue, error)
	DeleteAllVenues(ctx context.Context) error
}

func (mdb *MongodbRepo) CreateVenue(ctx context.Context, venue *Venue) (*Venue, error) {
	if err := venue.BeforeCreate(); err != nil {
		return nil, fmt.Errorf("failed to prepare venue for creation: %w", err)
	}
	col, err := mdb.GetCollection(VenuesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.InsertOne(ctx, venue); err != nil {
		// the unique name index catches inserts racing past the duplicate check
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("venue %q: %w", venue.Name, ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert venue into database: %w", err)
	}
	return venue, nil
}

func (mdb *MongodbRepo) GetVenueByID(ctx context.Context, id primitive.ObjectID) (*Venue, error) {
	return mdb.findOneVenue(ctx, bson.M{"_id": id})
}

func (mdb *MongodbRepo) GetVenueByName(ctx context.Context, name string) (*Venue, error) {
	return mdb.findOneVenue(ctx, bson.M{"name": name})
}

func (mdb *MongodbRepo) findOneVenue(ctx context.Context, filter bson.M) (*Venue, error) {
	col, err := mdb.GetCollection(VenuesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var venue Venue
	if err := col.FindOne(ctx, filter).Decode(&venue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("venue: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("error finding venue: %v", err)
	}
	return &venue, nil
}

func (mdb *MongodbRepo) ListVenues(ctx context.Context) ([]*Venue, error) {
	return mdb.findVenues(ctx, bson.M{})
}

func (mdb *MongodbRepo) ListVenuesByCategory(ctx context.Context, name string, categoryID *primitive.ObjectID) ([]*Venue, error) {
	filter := bson.M{"category": name}
	if categoryID != nil {
		filter = bson.M{"$or": bson.A{
			bson.M{"category": name},
			bson.M{"category": *categoryID},
		}}
	}
	return mdb.findVenues(ctx, filter)
}

func (mdb *MongodbRepo) ListVenuesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Venue, error) {
	if len(ids) == 0 {
		return []*Venue{}, nil
	}
	return mdb.findVenues(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (mdb *MongodbRepo) findVenues(ctx context.Context, filter bson.M) ([]*Venue, error) {
	col, err := mdb.GetCollection(VenuesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding venues: %v", err)
	}
	defer cursor.Close(ctx)

	var venues []*Venue
	if err := cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("error decoding venues: %v", err)
	}
	if venues == nil {
		venues = []*Venue{}
	}
	return venues, nil
}

func (mdb *MongodbRepo) DeleteAllVenues(ctx context.Context) error {
	col, err := mdb.GetCollection(VenuesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if _, err := col.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear venues: %w", err)
	}
	return nil
}
