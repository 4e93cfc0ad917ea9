package config

import (
	"testing"

	"fiscal_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMappingYAML = `
directorySync:
  enabled: true
  autoProvision: false
  mappings:
    - group: FISCAL-ADMINS
      role: administrator
      admin: true
      rcAccess:
        RC-001: OWNER
        RC-002: READ_WRITE
    - group: FISCAL-STAFF
      role: staff
      rcAccess:
        RC-001: READ_ONLY
`

func TestParseDirectorySyncConfig(t *testing.T) {
	cfg, err := ParseDirectorySyncConfig([]byte(sampleMappingYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.AutoProvision)
	require.Len(t, cfg.Mappings, 2)

	admins := cfg.Mappings[0]
	assert.Equal(t, "FISCAL-ADMINS", admins.GroupIdentifier)
	assert.Equal(t, "administrator", admins.ApplicationRole)
	assert.True(t, admins.IsAdmin)
	assert.Equal(t, models.AccessLevelOwner, admins.RCAccess["RC-001"])
	assert.Equal(t, models.AccessLevelReadWrite, admins.RCAccess["RC-002"])

	staff := cfg.Mappings[1]
	assert.False(t, staff.IsAdmin)
	assert.Equal(t, models.AccessLevelReadOnly, staff.RCAccess["RC-001"])
}

func TestParseDropsMalformedEntries(t *testing.T) {
	badLevel := `
directorySync:
  enabled: true
  mappings:
    - group: GOOD
      role: staff
      rcAccess:
        RC-001: READ_ONLY
    - group: BAD
      rcAccess:
        RC-001: SUPERUSER
    - rcAccess:
        RC-001: READ_ONLY
`
	cfg, err := ParseDirectorySyncConfig([]byte(badLevel))
	require.NoError(t, err, "bad entries are dropped, not fatal")

	require.Len(t, cfg.Mappings, 1)
	assert.Equal(t, "GOOD", cfg.Mappings[0].GroupIdentifier)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := ParseDirectorySyncConfig([]byte("directorySync: ["))
	assert.Error(t, err)
}

func TestMappingsForGroups(t *testing.T) {
	cfg, err := ParseDirectorySyncConfig([]byte(sampleMappingYAML))
	require.NoError(t, err)

	matched := cfg.MappingsForGroups([]string{"FISCAL-STAFF", "UNRELATED"})
	require.Len(t, matched, 1)
	assert.Equal(t, "FISCAL-STAFF", matched[0].GroupIdentifier)

	// Table order is preserved when several groups match.
	matched = cfg.MappingsForGroups([]string{"FISCAL-STAFF", "FISCAL-ADMINS"})
	require.Len(t, matched, 2)
	assert.Equal(t, "FISCAL-ADMINS", matched[0].GroupIdentifier)

	assert.Empty(t, cfg.MappingsForGroups(nil))
}

func TestLoadMissingFileDisablesSync(t *testing.T) {
	cfg, err := LoadDirectorySyncConfig("")
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.Mappings)
}
