package store

import (
	"context"

	"storefront-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateColor inserts a color attribute.
func (s *Store) CreateColor(ctx context.Context, color *models.Color) error {
	res, err := s.db.Collection(collColors).InsertOne(ctx, color)
	if err != nil {
		return err
	}
	color.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// CreateSize inserts a size attribute.
func (s *Store) CreateSize(ctx context.Context, size *models.Size) error {
	res, err := s.db.Collection(collSizes).InsertOne(ctx, size)
	if err != nil {
		return err
	}
	size.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListColors returns all color attributes.
func (s *Store) ListColors(ctx context.Context) ([]models.Color, error) {
	cursor, err := s.db.Collection(collColors).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	colors := []models.Color{}
	if err := cursor.All(ctx, &colors); err != nil {
		return nil, err
	}
	return colors, nil
}

// ListSizes returns all size attributes.
func (s *Store) ListSizes(ctx context.Context) ([]models.Size, error) {
	cursor, err := s.db.Collection(collSizes).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sizes := []models.Size{}
	if err := cursor.All(ctx, &sizes); err != nil {
		return nil, err
	}
	return sizes, nil
}
