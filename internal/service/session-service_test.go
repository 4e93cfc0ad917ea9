package service

import (
	"context"
	"testing"

	"fiscal_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	cache := newFakeCacheStore()
	svc := NewSessionService(cache)
	ctx := context.Background()

	account := &models.UserAccount{
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    []string{"staff"},
	}

	session, err := svc.NewSession(ctx, account, "test-agent", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.IsValid)

	cached, err := svc.GetSession(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", cached.Username)
	assert.Equal(t, "test-agent", cached.UserAgent)

	require.NoError(t, svc.InvalidateSession(ctx, "alice"))

	_, err = svc.GetSession(ctx, "alice")
	assert.Error(t, err, "an invalidated session is gone from the cache")
}
