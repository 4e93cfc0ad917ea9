package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessLevelOrdering(t *testing.T) {
	assert.True(t, AccessLevelNone < AccessLevelReadOnly)
	assert.True(t, AccessLevelReadOnly < AccessLevelReadWrite)
	assert.True(t, AccessLevelReadWrite < AccessLevelOwner)
}

func TestParseAccessLevel(t *testing.T) {
	for _, level := range []AccessLevel{AccessLevelReadOnly, AccessLevelReadWrite, AccessLevelOwner} {
		parsed, err := ParseAccessLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	_, err := ParseAccessLevel("SUPERUSER")
	assert.Error(t, err)

	_, err = ParseAccessLevel("NONE")
	assert.Error(t, err, "NONE is the absence of a grant, not a grantable level")
}

func TestAccessLevelJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(AccessLevelReadWrite)
	require.NoError(t, err)
	assert.Equal(t, `"READ_WRITE"`, string(data))

	var level AccessLevel
	require.NoError(t, json.Unmarshal([]byte(`"OWNER"`), &level))
	assert.Equal(t, AccessLevelOwner, level)

	assert.Error(t, json.Unmarshal([]byte(`"WHATEVER"`), &level))
}

func TestPrincipalValidate(t *testing.T) {
	assert.NoError(t, UserPrincipal("bob").Validate())
	assert.NoError(t, GroupPrincipal("staff", "Staff").Validate())
	assert.NoError(t, DistributionListPrincipal("finance-dl", "Finance").Validate())

	assert.Error(t, Principal{Type: PrincipalUser}.Validate(), "empty id")
	assert.Error(t, Principal{Type: "machine", ID: "x"}.Validate(), "outside the closed set")
}

func TestPrincipalKeyDistinguishesTypes(t *testing.T) {
	group := GroupPrincipal("finance", "Finance")
	dl := DistributionListPrincipal("finance", "Finance DL")

	assert.NotEqual(t, group.Key(), dl.Key(), "same identifier, different principal kinds")
	assert.Equal(t, GroupPrincipal("finance", "other display name").Key(), group.Key(), "display name is not part of identity")
}
