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

type rcFixture struct {
	grants  *fakeGrantStore
	rcs     *fakeRCStore
	service *RCService
}

func newRCFixture() *rcFixture {
	grants := newFakeGrantStore()
	rcs := newFakeRCStore()
	return &rcFixture{
		grants:  grants,
		rcs:     rcs,
		service: NewRCService(rcs, NewAccessService(grants)),
	}
}

func TestCreateRCCapturesOwner(t *testing.T) {
	f := newRCFixture()
	ctx := context.Background()

	rc, err := f.service.CreateRC(ctx, "RC-001", "Operations", "FY26", Subject{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", rc.OwnerUsername)
	assert.False(t, rc.ID.IsZero())

	_, level, err := f.service.GetRC(ctx, rc.ID, Subject{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, models.AccessLevelOwner, level)
}

func TestCreateRCDuplicateIdentifier(t *testing.T) {
	f := newRCFixture()
	ctx := context.Background()

	_, err := f.service.CreateRC(ctx, "RC-001", "Operations", "FY26", Subject{Username: "alice"})
	require.NoError(t, err)

	_, err = f.service.CreateRC(ctx, "RC-001", "Other", "FY26", Subject{Username: "bob"})
	assert.True(t, apperrors.IsConflict(err))
}

func TestCreateRCRequiresIdentifierAndName(t *testing.T) {
	f := newRCFixture()
	ctx := context.Background()

	_, err := f.service.CreateRC(ctx, "", "Operations", "FY26", Subject{Username: "alice"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.service.CreateRC(ctx, "RC-001", "", "FY26", Subject{Username: "alice"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetRCWithoutAccess(t *testing.T) {
	f := newRCFixture()
	ctx := context.Background()

	rc, err := f.service.CreateRC(ctx, "RC-001", "Operations", "FY26", Subject{Username: "alice"})
	require.NoError(t, err)

	_, _, err = f.service.GetRC(ctx, rc.ID, Subject{Username: "bob"})
	assert.True(t, apperrors.IsAuthorization(err))

	_, _, err = f.service.GetRC(ctx, bson.NewObjectID(), Subject{Username: "alice"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateRCRequiresContentEdit(t *testing.T) {
	f := newRCFixture()
	ctx := context.Background()

	rc, err := f.service.CreateRC(ctx, "RC-001", "Operations", "FY26", Subject{Username: "alice"})
	require.NoError(t, err)

	_, err = f.grants.Insert(ctx, &models.AccessGrant{
		RCID:      rc.ID,
		Principal: models.UserPrincipal("bob"),
		Level:     models.AccessLevelReadOnly,
	})
	require.NoError(t, err)

	_, err = f.service.UpdateRC(ctx, rc.ID, "Renamed", "", Subject{Username: "bob"})
	assert.True(t, apperrors.IsAuthorization(err), "READ_ONLY must not allow edits")

	_, err = f.grants.Insert(ctx, &models.AccessGrant{
		RCID:      rc.ID,
		Principal: models.UserPrincipal("carol"),
		Level:     models.AccessLevelReadWrite,
	})
	require.NoError(t, err)

	updated, err := f.service.UpdateRC(ctx, rc.ID, "Renamed", "FY27", Subject{Username: "carol"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "FY27", updated.FiscalYear)
	assert.Equal(t, "alice", updated.OwnerUsername, "ownership never changes through an edit")
}

func TestListAccessibleRCs(t *testing.T) {
	f := newRCFixture()
	ctx := context.Background()

	mine, err := f.service.CreateRC(ctx, "RC-001", "Operations", "FY26", Subject{Username: "alice"})
	require.NoError(t, err)
	shared, err := f.service.CreateRC(ctx, "RC-002", "Travel", "FY26", Subject{Username: "bob"})
	require.NoError(t, err)
	_, err = f.service.CreateRC(ctx, "RC-003", "Training", "FY26", Subject{Username: "bob"})
	require.NoError(t, err)

	_, err = f.grants.Insert(ctx, &models.AccessGrant{
		RCID:      shared.ID,
		Principal: models.UserPrincipal("alice"),
		Level:     models.AccessLevelReadOnly,
	})
	require.NoError(t, err)

	rcs, levels, err := f.service.ListAccessibleRCs(ctx, Subject{Username: "alice"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rcs, 2, "RC-003 is invisible to alice")
	assert.Equal(t, models.AccessLevelOwner, levels[mine.ID.Hex()])
	assert.Equal(t, models.AccessLevelReadOnly, levels[shared.ID.Hex()])
}
