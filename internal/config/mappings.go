package config

import (
	"fmt"
	"log"
	"os"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/models"

	"gopkg.in/yaml.v3"
)

// GroupRoleMapping translates one external directory group into an
// application role, an optional admin flag, and a set of responsibility
// centre access levels. The table is loaded once at startup and never
// mutated afterwards.
type GroupRoleMapping struct {
	GroupIdentifier string                        `yaml:"group"`
	ApplicationRole string                        `yaml:"role"`
	IsAdmin         bool                          `yaml:"admin"`
	RCAccess        map[string]models.AccessLevel `yaml:"-"`
}

type DirectorySyncConfig struct {
	Enabled       bool               `yaml:"enabled"`
	AutoProvision bool               `yaml:"autoProvision"`
	Mappings      []GroupRoleMapping `yaml:"-"`
}

type rawMapping struct {
	Group    string            `yaml:"group"`
	Role     string            `yaml:"role"`
	Admin    bool              `yaml:"admin"`
	RCAccess map[string]string `yaml:"rcAccess"`
}

type rawSyncConfig struct {
	DirectorySync struct {
		Enabled       bool         `yaml:"enabled"`
		AutoProvision bool         `yaml:"autoProvision"`
		Mappings      []rawMapping `yaml:"mappings"`
	} `yaml:"directorySync"`
}

// LoadDirectorySyncConfig reads the group mapping table from a YAML file.
// A missing path disables sync. A mapping entry that fails validation is
// logged and dropped; the rest of the table still loads.
func LoadDirectorySyncConfig(path string) (*DirectorySyncConfig, error) {
	if path == "" {
		log.Println("No group mapping file configured, directory sync disabled")
		return &DirectorySyncConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading group mapping file: %w", err)
	}

	return ParseDirectorySyncConfig(data)
}

func ParseDirectorySyncConfig(data []byte) (*DirectorySyncConfig, error) {
	var raw rawSyncConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing group mapping file: %w", err)
	}

	cfg := &DirectorySyncConfig{
		Enabled:       raw.DirectorySync.Enabled,
		AutoProvision: raw.DirectorySync.AutoProvision,
		Mappings:      make([]GroupRoleMapping, 0, len(raw.DirectorySync.Mappings)),
	}

	for _, entry := range raw.DirectorySync.Mappings {
		mapping, err := buildMapping(entry)
		if err != nil {
			log.Printf("Skipping group mapping: %s", err)
			continue
		}
		cfg.Mappings = append(cfg.Mappings, mapping)
	}

	log.Printf("Loaded %d directory group mappings (enabled=%t)", len(cfg.Mappings), cfg.Enabled)
	return cfg, nil
}

func buildMapping(entry rawMapping) (GroupRoleMapping, error) {
	if entry.Group == "" {
		return GroupRoleMapping{}, &apperrors.ConfigurationError{Entry: "(unnamed)", Reason: "missing group identifier"}
	}

	mapping := GroupRoleMapping{
		GroupIdentifier: entry.Group,
		ApplicationRole: entry.Role,
		IsAdmin:         entry.Admin,
		RCAccess:        make(map[string]models.AccessLevel, len(entry.RCAccess)),
	}

	for rcIdentifier, levelStr := range entry.RCAccess {
		level, err := models.ParseAccessLevel(levelStr)
		if err != nil {
			return GroupRoleMapping{}, &apperrors.ConfigurationError{Entry: entry.Group, Reason: err.Error()}
		}
		mapping.RCAccess[rcIdentifier] = level
	}

	return mapping, nil
}

// MappingsForGroups returns, in table order, the mappings whose group
// identifier appears in the supplied raw directory group list.
func (c *DirectorySyncConfig) MappingsForGroups(groupIdentifiers []string) []GroupRoleMapping {
	members := make(map[string]bool, len(groupIdentifiers))
	for _, id := range groupIdentifiers {
		members[id] = true
	}

	var matched []GroupRoleMapping
	for _, mapping := range c.Mappings {
		if members[mapping.GroupIdentifier] {
			matched = append(matched, mapping)
		}
	}
	return matched
}
