package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type ResponsibilityCentreRepository struct {
	collection *mongo.Collection
}

func NewResponsibilityCentreRepository(db *mongo.Database) *ResponsibilityCentreRepository {
	return &ResponsibilityCentreRepository{
		collection: db.Collection("ResponsibilityCentre"),
	}
}

func (r *ResponsibilityCentreRepository) Create(ctx context.Context, rc *models.ResponsibilityCentre) (*models.ResponsibilityCentre, error) {
	existing, err := r.FindByIdentifier(ctx, rc.Identifier)
	if err != nil {
		return nil, fmt.Errorf("error checking existing responsibility centre: %w", err)
	}
	if existing != nil {
		return nil, &apperrors.ConflictError{Resource: "responsibility centre", Key: rc.Identifier}
	}

	if rc.ID.IsZero() {
		rc.ID = bson.NewObjectID()
	}

	currentTime := int(time.Now().Unix())
	rc.CreatedAt = currentTime
	rc.UpdatedAt = currentTime
	rc.IsActive = true

	_, err = r.collection.InsertOne(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to insert responsibility centre: %w", err)
	}

	return rc, nil
}

func (r *ResponsibilityCentreRepository) Update(ctx context.Context, rc *models.ResponsibilityCentre) error {
	rc.UpdatedAt = int(time.Now().Unix())

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": rc.ID}, bson.M{"$set": rc})
	if err != nil {
		return fmt.Errorf("failed to update responsibility centre: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.NotFoundError{Resource: "responsibility centre", Key: rc.ID.Hex()}
	}
	return nil
}

func (r *ResponsibilityCentreRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.ResponsibilityCentre, error) {
	var rc models.ResponsibilityCentre
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rc, nil
}

func (r *ResponsibilityCentreRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.ResponsibilityCentre, error) {
	var rc models.ResponsibilityCentre
	err := r.collection.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&rc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rc, nil
}

func (r *ResponsibilityCentreRepository) FindAll(ctx context.Context, page, limit int) ([]*models.ResponsibilityCentre, error) {
	opts := options.Find()
	opts.SetSort(bson.M{"identifier": 1})
	if page > 0 && limit > 0 {
		opts.SetSkip(int64((page - 1) * limit))
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rcs []*models.ResponsibilityCentre
	if err = cursor.All(ctx, &rcs); err != nil {
		return nil, err
	}
	return rcs, nil
}
