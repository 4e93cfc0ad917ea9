package service

import (
	"context"
	"time"

	"fiscal_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// GrantStore is the persistence contract for access grant rows. The Mongo
// repository satisfies it in production; tests use in-memory fakes.
type GrantStore interface {
	Insert(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error)
	UpdateLevel(ctx context.Context, id bson.ObjectID, level models.AccessLevel) error
	Delete(ctx context.Context, id bson.ObjectID) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.AccessGrant, error)
	FindByRC(ctx context.Context, rcID bson.ObjectID) ([]*models.AccessGrant, error)
	FindByRCAndPrincipal(ctx context.Context, rcID bson.ObjectID, principal models.Principal) (*models.AccessGrant, error)
	FindByRCForSubject(ctx context.Context, rcID bson.ObjectID, username string, groupIdentifiers []string) ([]*models.AccessGrant, error)
}

type RCStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.ResponsibilityCentre, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.ResponsibilityCentre, error)
}

// RCManagementStore adds the mutating surface on top of the read-side
// resolution contract.
type RCManagementStore interface {
	RCStore
	Create(ctx context.Context, rc *models.ResponsibilityCentre) (*models.ResponsibilityCentre, error)
	Update(ctx context.Context, rc *models.ResponsibilityCentre) error
	FindAll(ctx context.Context, page, limit int) ([]*models.ResponsibilityCentre, error)
}

type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (*models.UserAccount, error)
	NewAccount(ctx context.Context, account *models.UserAccount) (*models.UserAccount, error)
	UpdateDirectoryRoles(ctx context.Context, username string, roles []string, isAdmin bool) error
	RecordLogin(ctx context.Context, username string) error
}

// CacheStore is the session and lockout cache contract the Redis
// repository satisfies.
type CacheStore interface {
	SaveStructCached(ctx context.Context, key string, model any, ttl time.Duration) (bool, error)
	GetStructCached(ctx context.Context, key string, model any) error
	SaveInt(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error)
	GetInt(ctx context.Context, key string) int64
	DeleteKey(ctx context.Context, key string) error
}

// Subject is the identity a request acts as: the username plus the raw
// directory group identifiers current at authentication time.
type Subject struct {
	Username         string
	GroupIdentifiers []string
}
