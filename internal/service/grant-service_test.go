package service

import (
	"context"
	"testing"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type grantFixture struct {
	rc       *models.ResponsibilityCentre
	grants   *fakeGrantStore
	rcs      *fakeRCStore
	accounts *fakeAccountStore
	service  *GrantService
}

func newGrantFixture(t *testing.T) *grantFixture {
	t.Helper()

	rc := newTestRC("RC-001", "alice")
	grants := newFakeGrantStore()
	rcs := newFakeRCStore(rc)
	accounts := newFakeAccountStore("alice", "bob", "carol")
	access := NewAccessService(grants)

	return &grantFixture{
		rc:       rc,
		grants:   grants,
		rcs:      rcs,
		accounts: accounts,
		service:  NewGrantService(grants, rcs, accounts, access, nil),
	}
}

func (f *grantFixture) owner() Subject {
	return Subject{Username: "alice"}
}

func TestGrantUserAccess(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	grant, err := f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadWrite, f.owner())
	require.NoError(t, err)
	assert.Equal(t, models.PrincipalUser, grant.Principal.Type)
	assert.Equal(t, "bob", grant.Principal.ID)
	assert.Equal(t, models.AccessLevelReadWrite, grant.Level)
	assert.Equal(t, "alice", grant.GrantedBy)
	assert.False(t, grant.ID.IsZero())
}

func TestGrantUserAccessUnknownTarget(t *testing.T) {
	f := newGrantFixture(t)

	_, err := f.service.GrantUserAccess(context.Background(), f.rc.ID, "nobody", models.AccessLevelReadOnly, f.owner())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGrantUserAccessDuplicate(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	_, err := f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadOnly, f.owner())
	require.NoError(t, err)

	_, err = f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadWrite, f.owner())
	assert.True(t, apperrors.IsConflict(err), "second grant for the same principal must conflict")
}

func TestGrantGroupAccessRejectsUserPrincipal(t *testing.T) {
	f := newGrantFixture(t)

	_, err := f.service.GrantGroupAccess(context.Background(), f.rc.ID, "bob", "Bob", models.PrincipalUser, models.AccessLevelReadOnly, f.owner())
	assert.True(t, apperrors.IsValidation(err), "user principals must be rejected at the group entry point")
}

func TestGrantGroupAccessDuplicateScopedByType(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	_, err := f.service.GrantGroupAccess(ctx, f.rc.ID, "finance", "Finance", models.PrincipalGroup, models.AccessLevelReadOnly, f.owner())
	require.NoError(t, err)

	// Same identifier as a distribution list is a different principal.
	_, err = f.service.GrantGroupAccess(ctx, f.rc.ID, "finance", "Finance DL", models.PrincipalDistributionList, models.AccessLevelReadOnly, f.owner())
	require.NoError(t, err)

	_, err = f.service.GrantGroupAccess(ctx, f.rc.ID, "finance", "Finance", models.PrincipalGroup, models.AccessLevelReadWrite, f.owner())
	assert.True(t, apperrors.IsConflict(err))
}

func TestMutatingOperationsRequireOwner(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	// bob holds READ_WRITE, enough to edit content but not to manage.
	bobGrant, err := f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadWrite, f.owner())
	require.NoError(t, err)

	requester := Subject{Username: "bob"}

	_, err = f.service.GrantUserAccess(ctx, f.rc.ID, "carol", models.AccessLevelReadOnly, requester)
	assert.True(t, apperrors.IsAuthorization(err))

	_, err = f.service.GrantGroupAccess(ctx, f.rc.ID, "staff", "Staff", models.PrincipalGroup, models.AccessLevelReadOnly, requester)
	assert.True(t, apperrors.IsAuthorization(err))

	err = f.service.UpdatePermission(ctx, bobGrant.ID, models.AccessLevelReadOnly, requester)
	assert.True(t, apperrors.IsAuthorization(err))

	err = f.service.RevokeAccess(ctx, bobGrant.ID, requester)
	assert.True(t, apperrors.IsAuthorization(err))

	_, err = f.service.GetPermissionsForRC(ctx, f.rc.ID, requester)
	assert.True(t, apperrors.IsAuthorization(err), "listing permissions requires OWNER, stricter than content access")
}

func TestOwnerLevelGrantConfersManagement(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	_, err := f.service.GrantUserAccess(ctx, f.rc.ID, "carol", models.AccessLevelOwner, f.owner())
	require.NoError(t, err)

	// carol now manages through her grant, not structural ownership.
	_, err = f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadOnly, Subject{Username: "carol"})
	assert.NoError(t, err)
}

func TestUpdatePermissionChangesLevelOnly(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	grant, err := f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadWrite, f.owner())
	require.NoError(t, err)

	require.NoError(t, f.service.UpdatePermission(ctx, grant.ID, models.AccessLevelReadOnly, f.owner()))

	updated, err := f.grants.FindByID(ctx, grant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessLevelReadOnly, updated.Level)
	assert.Equal(t, grant.Principal, updated.Principal)
	assert.Equal(t, grant.RCID, updated.RCID)
}

func TestUpdatePermissionUnknownGrant(t *testing.T) {
	f := newGrantFixture(t)

	err := f.service.UpdatePermission(context.Background(), bson.NewObjectID(), models.AccessLevelReadOnly, f.owner())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRevokeAccessDeletesRow(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	grant, err := f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadWrite, f.owner())
	require.NoError(t, err)

	require.NoError(t, f.service.RevokeAccess(ctx, grant.ID, f.owner()))

	gone, err := f.grants.FindByID(ctx, grant.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "revocation is a hard delete")
}

func TestRevokeNonexistentGrant(t *testing.T) {
	f := newGrantFixture(t)

	err := f.service.RevokeAccess(context.Background(), bson.NewObjectID(), f.owner())
	assert.True(t, apperrors.IsNotFound(err), "revoking a never-issued id must fail, not no-op")
}

func TestGetPermissionsIncludesSynthesizedOwner(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()

	_, err := f.service.GrantUserAccess(ctx, f.rc.ID, "bob", models.AccessLevelReadOnly, f.owner())
	require.NoError(t, err)

	listing, err := f.service.GetPermissionsForRC(ctx, f.rc.ID, f.owner())
	require.NoError(t, err)
	require.Len(t, listing, 2)

	ownerEntry := listing[0]
	assert.Equal(t, models.UserPrincipal("alice"), ownerEntry.Principal)
	assert.Equal(t, models.AccessLevelOwner, ownerEntry.Level)
	assert.True(t, ownerEntry.ID.IsZero(), "ownership is synthesized, not a stored row")
}

func TestOperationsOnUnknownRC(t *testing.T) {
	f := newGrantFixture(t)

	_, err := f.service.GrantUserAccess(context.Background(), bson.NewObjectID(), "bob", models.AccessLevelReadOnly, f.owner())
	assert.True(t, apperrors.IsNotFound(err))
}
