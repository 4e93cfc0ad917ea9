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

type UserAccountRepository struct {
	collection *mongo.Collection
}

func NewUserAccountRepository(db *mongo.Database) *UserAccountRepository {
	return &UserAccountRepository{
		collection: db.Collection("UserAccount"),
	}
}

func (r *UserAccountRepository) NewAccount(ctx context.Context, account *models.UserAccount) (*models.UserAccount, error) {
	existing, err := r.FindByUsername(ctx, account.Username)
	if err != nil {
		return nil, fmt.Errorf("error checking existing account: %w", err)
	}
	if existing != nil {
		return nil, &apperrors.ConflictError{Resource: "user account", Key: account.Username}
	}

	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}

	currentTime := int(time.Now().Unix())
	account.CreatedAt = currentTime
	account.UpdatedAt = currentTime

	_, err = r.collection.InsertOne(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user account: %w", err)
	}

	return account, nil
}

func (r *UserAccountRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.UserAccount, error) {
	var account models.UserAccount
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *UserAccountRepository) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	var account models.UserAccount
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *UserAccountRepository) FindAll(ctx context.Context, page, limit int) ([]*models.UserAccount, error) {
	opts := options.Find()
	opts.SetSort(bson.M{"createdAt": -1})
	if page > 0 && limit > 0 {
		opts.SetSkip(int64((page - 1) * limit))
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*models.UserAccount
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateDirectoryRoles overwrites the role set and admin flag computed by
// directory group sync on the account.
func (r *UserAccountRepository) UpdateDirectoryRoles(ctx context.Context, username string, roles []string, isAdmin bool) error {
	filter := bson.M{"username": username}
	update := bson.M{"$set": bson.M{
		"roles":     roles,
		"isAdmin":   isAdmin,
		"updatedAt": int(time.Now().Unix()),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update directory roles: %w", err)
	}
	if result.MatchedCount == 0 {
		return &apperrors.NotFoundError{Resource: "user account", Key: username}
	}
	return nil
}

func (r *UserAccountRepository) RecordLogin(ctx context.Context, username string) error {
	filter := bson.M{"username": username}
	update := bson.M{"$set": bson.M{
		"lastLoginAt":         int(time.Now().Unix()),
		"failedLoginAttempts": 0,
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}
