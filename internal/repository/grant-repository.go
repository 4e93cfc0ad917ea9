package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type AccessGrantRepository struct {
	collection *mongo.Collection
}

func NewAccessGrantRepository(db *mongo.Database) *AccessGrantRepository {
	repo := &AccessGrantRepository{
		collection: db.Collection("AccessGrant"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

// ensureIndexes creates the unique index on (rcId, principal). The index is
// the real arbiter against concurrent duplicate grants; the application-level
// pre-checks in the service layer only exist to produce a friendlier error.
func (r *AccessGrantRepository) ensureIndexes(ctx context.Context) {
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "rcId", Value: 1},
			{Key: "principal.type", Value: 1},
			{Key: "principal.id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}

	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("Warning: Failed to create access grant unique index: %v", err)
	}
}

func (r *AccessGrantRepository) Insert(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error) {
	if err := grant.Principal.Validate(); err != nil {
		return nil, fmt.Errorf("error inserting grant: %w", err)
	}

	if grant.ID.IsZero() {
		grant.ID = bson.NewObjectID()
	}
	if grant.GrantedAt == 0 {
		grant.GrantedAt = int(time.Now().Unix())
	}

	_, err := r.collection.InsertOne(ctx, grant)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &apperrors.ConflictError{Resource: "access grant", Key: grant.Principal.Key()}
		}
		return nil, fmt.Errorf("failed to insert access grant: %w", err)
	}

	return grant, nil
}

// UpdateLevel changes the access level of an existing grant. The principal
// and responsibility centre on a row are immutable.
func (r *AccessGrantRepository) UpdateLevel(ctx context.Context, id bson.ObjectID, level models.AccessLevel) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"accessLevel": level}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update access grant: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.NotFoundError{Resource: "access grant", Key: id.Hex()}
	}
	return nil
}

// Delete removes the grant row outright. Revocation has no soft-delete state.
func (r *AccessGrantRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete access grant: %w", err)
	}
	if result.DeletedCount == 0 {
		return &apperrors.NotFoundError{Resource: "access grant", Key: id.Hex()}
	}
	return nil
}

func (r *AccessGrantRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.AccessGrant, error) {
	var grant models.AccessGrant
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&grant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *AccessGrantRepository) FindByRC(ctx context.Context, rcID bson.ObjectID) ([]*models.AccessGrant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"rcId": rcID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []*models.AccessGrant
	if err = cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *AccessGrantRepository) FindByRCAndPrincipal(ctx context.Context, rcID bson.ObjectID, principal models.Principal) (*models.AccessGrant, error) {
	filter := bson.M{
		"rcId":           rcID,
		"principal.type": principal.Type,
		"principal.id":   principal.ID,
	}

	var grant models.AccessGrant
	err := r.collection.FindOne(ctx, filter).Decode(&grant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

// FindByRCForSubject fetches every grant on the responsibility centre whose
// principal is the given user or any of the given group/distribution-list
// identifiers. One query serves the whole resolution.
func (r *AccessGrantRepository) FindByRCForSubject(ctx context.Context, rcID bson.ObjectID, username string, groupIdentifiers []string) ([]*models.AccessGrant, error) {
	conditions := []bson.M{
		{"principal.type": models.PrincipalUser, "principal.id": username},
	}
	if len(groupIdentifiers) > 0 {
		conditions = append(conditions, bson.M{
			"principal.type": bson.M{"$in": []models.PrincipalType{models.PrincipalGroup, models.PrincipalDistributionList}},
			"principal.id":   bson.M{"$in": groupIdentifiers},
		})
	}

	filter := bson.M{"rcId": rcID, "$or": conditions}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []*models.AccessGrant
	if err = cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}
