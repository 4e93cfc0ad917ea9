package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// In-memory stand-ins for the Mongo repositories. They enforce the same
// contracts: nil-on-missing lookups, ConflictError from the uniqueness
// constraint, NotFoundError on update/delete of an absent row.

type fakeGrantStore struct {
	grants map[bson.ObjectID]*models.AccessGrant
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: make(map[bson.ObjectID]*models.AccessGrant)}
}

func (f *fakeGrantStore) Insert(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error) {
	for _, existing := range f.grants {
		if existing.RCID == grant.RCID && existing.Principal.Key() == grant.Principal.Key() {
			return nil, &apperrors.ConflictError{Resource: "access grant", Key: grant.Principal.Key()}
		}
	}

	stored := *grant
	if stored.ID.IsZero() {
		stored.ID = bson.NewObjectID()
	}
	if stored.GrantedAt == 0 {
		stored.GrantedAt = int(time.Now().Unix())
	}
	f.grants[stored.ID] = &stored

	*grant = stored
	return grant, nil
}

func (f *fakeGrantStore) UpdateLevel(ctx context.Context, id bson.ObjectID, level models.AccessLevel) error {
	grant, ok := f.grants[id]
	if !ok {
		return &apperrors.NotFoundError{Resource: "access grant", Key: id.Hex()}
	}
	grant.Level = level
	return nil
}

func (f *fakeGrantStore) Delete(ctx context.Context, id bson.ObjectID) error {
	if _, ok := f.grants[id]; !ok {
		return &apperrors.NotFoundError{Resource: "access grant", Key: id.Hex()}
	}
	delete(f.grants, id)
	return nil
}

func (f *fakeGrantStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.AccessGrant, error) {
	grant, ok := f.grants[id]
	if !ok {
		return nil, nil
	}
	copied := *grant
	return &copied, nil
}

func (f *fakeGrantStore) FindByRC(ctx context.Context, rcID bson.ObjectID) ([]*models.AccessGrant, error) {
	var result []*models.AccessGrant
	for _, grant := range f.grants {
		if grant.RCID == rcID {
			copied := *grant
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (f *fakeGrantStore) FindByRCAndPrincipal(ctx context.Context, rcID bson.ObjectID, principal models.Principal) (*models.AccessGrant, error) {
	for _, grant := range f.grants {
		if grant.RCID == rcID && grant.Principal.Key() == principal.Key() {
			copied := *grant
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeGrantStore) FindByRCForSubject(ctx context.Context, rcID bson.ObjectID, username string, groupIdentifiers []string) ([]*models.AccessGrant, error) {
	var result []*models.AccessGrant
	for _, grant := range f.grants {
		if grant.RCID != rcID {
			continue
		}
		switch grant.Principal.Type {
		case models.PrincipalUser:
			if grant.Principal.ID == username {
				copied := *grant
				result = append(result, &copied)
			}
		case models.PrincipalGroup, models.PrincipalDistributionList:
			if slices.Contains(groupIdentifiers, grant.Principal.ID) {
				copied := *grant
				result = append(result, &copied)
			}
		}
	}
	return result, nil
}

type fakeRCStore struct {
	rcs map[bson.ObjectID]*models.ResponsibilityCentre
}

func newFakeRCStore(rcs ...*models.ResponsibilityCentre) *fakeRCStore {
	store := &fakeRCStore{rcs: make(map[bson.ObjectID]*models.ResponsibilityCentre)}
	for _, rc := range rcs {
		store.rcs[rc.ID] = rc
	}
	return store
}

func (f *fakeRCStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.ResponsibilityCentre, error) {
	rc, ok := f.rcs[id]
	if !ok {
		return nil, nil
	}
	return rc, nil
}

func (f *fakeRCStore) FindByIdentifier(ctx context.Context, identifier string) (*models.ResponsibilityCentre, error) {
	for _, rc := range f.rcs {
		if rc.Identifier == identifier {
			return rc, nil
		}
	}
	return nil, nil
}

func (f *fakeRCStore) Create(ctx context.Context, rc *models.ResponsibilityCentre) (*models.ResponsibilityCentre, error) {
	for _, existing := range f.rcs {
		if existing.Identifier == rc.Identifier {
			return nil, &apperrors.ConflictError{Resource: "responsibility centre", Key: rc.Identifier}
		}
	}
	if rc.ID.IsZero() {
		rc.ID = bson.NewObjectID()
	}
	rc.IsActive = true
	rc.CreatedAt = int(time.Now().Unix())
	rc.UpdatedAt = rc.CreatedAt
	f.rcs[rc.ID] = rc
	return rc, nil
}

func (f *fakeRCStore) Update(ctx context.Context, rc *models.ResponsibilityCentre) error {
	if _, ok := f.rcs[rc.ID]; !ok {
		return &apperrors.NotFoundError{Resource: "responsibility centre", Key: rc.ID.Hex()}
	}
	rc.UpdatedAt = int(time.Now().Unix())
	f.rcs[rc.ID] = rc
	return nil
}

func (f *fakeRCStore) FindAll(ctx context.Context, page, limit int) ([]*models.ResponsibilityCentre, error) {
	result := make([]*models.ResponsibilityCentre, 0, len(f.rcs))
	for _, rc := range f.rcs {
		result = append(result, rc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Identifier < result[j].Identifier })
	return result, nil
}

type fakeAccountStore struct {
	accounts    map[string]*models.UserAccount
	rolesWrites int
}

func newFakeAccountStore(usernames ...string) *fakeAccountStore {
	store := &fakeAccountStore{accounts: make(map[string]*models.UserAccount)}
	for _, username := range usernames {
		store.accounts[username] = &models.UserAccount{
			ID:       bson.NewObjectID(),
			Username: username,
			IsActive: true,
		}
	}
	return store
}

func (f *fakeAccountStore) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	account, ok := f.accounts[username]
	if !ok {
		return nil, nil
	}
	return account, nil
}

func (f *fakeAccountStore) NewAccount(ctx context.Context, account *models.UserAccount) (*models.UserAccount, error) {
	if _, ok := f.accounts[account.Username]; ok {
		return nil, &apperrors.ConflictError{Resource: "user account", Key: account.Username}
	}
	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}
	f.accounts[account.Username] = account
	return account, nil
}

func (f *fakeAccountStore) UpdateDirectoryRoles(ctx context.Context, username string, roles []string, isAdmin bool) error {
	account, ok := f.accounts[username]
	if !ok {
		return &apperrors.NotFoundError{Resource: "user account", Key: username}
	}
	account.Roles = roles
	account.IsAdmin = isAdmin
	f.rolesWrites++
	return nil
}

func (f *fakeAccountStore) RecordLogin(ctx context.Context, username string) error {
	if account, ok := f.accounts[username]; ok {
		account.LastLoginAt = int(time.Now().Unix())
	}
	return nil
}

type fakeCacheStore struct {
	structs map[string][]byte
	ints    map[string]int64
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{
		structs: make(map[string][]byte),
		ints:    make(map[string]int64),
	}
}

func (f *fakeCacheStore) SaveStructCached(ctx context.Context, key string, model any, ttl time.Duration) (bool, error) {
	val, err := json.Marshal(model)
	if err != nil {
		return false, err
	}
	f.structs[key] = val
	return true, nil
}

func (f *fakeCacheStore) GetStructCached(ctx context.Context, key string, model any) error {
	val, ok := f.structs[key]
	if !ok {
		return fmt.Errorf("key '%s' not cached", key)
	}
	return json.Unmarshal(val, model)
}

func (f *fakeCacheStore) SaveInt(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error) {
	f.ints[key] = value
	return true, nil
}

func (f *fakeCacheStore) GetInt(ctx context.Context, key string) int64 {
	return f.ints[key]
}

func (f *fakeCacheStore) DeleteKey(ctx context.Context, key string) error {
	delete(f.structs, key)
	delete(f.ints, key)
	return nil
}

func newTestRC(identifier, owner string) *models.ResponsibilityCentre {
	return &models.ResponsibilityCentre{
		ID:            bson.NewObjectID(),
		Identifier:    identifier,
		Name:          "Centre " + identifier,
		OwnerUsername: owner,
		IsActive:      true,
		CreatedAt:     int(time.Now().Unix()),
	}
}
