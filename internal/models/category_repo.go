package models

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoriesRepo interface {
	CreateCategory(ctx context.Context, category *Category) (*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	DeleteAllCategories(ctx context.Context) error
}

func (mdb *MongodbRepo) CreateCategory(ctx context.Context, category *Category) (*Category, error) {
	if err := category.BeforeCreate(); err != nil {
		return nil, fmt.Errorf("failed to prepare category for creation: %w", err)
	}
	col, err := mdb.GetCollection(CategoriesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.InsertOne(ctx, category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("category %q: %w", category.Name, ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert category into database: %w", err)
	}
	return category, nil
}

func (mdb *MongodbRepo) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	col, err := mdb.GetCollection(CategoriesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var category Category
	if err := col.FindOne(ctx, bson.M{"name": name}).Decode(&category); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding category: %v", err)
	}
	return &category, nil
}

func (mdb *MongodbRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	col, err := mdb.GetCollection(CategoriesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding categories: %v", err)
	}
	defer cursor.Close(ctx)

	var categories []*Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("error decoding categories: %v", err)
	}
	if categories == nil {
		categories = []*Category{}
	}
	return categories, nil
}

func (mdb *MongodbRepo) DeleteAllCategories(ctx context.Context) error {
	col, err := mdb.GetCollection(CategoriesColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	if _, err := col.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	return nil
}
