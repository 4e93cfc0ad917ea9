package service

import (
	"context"
	"log"
	"sort"
	"time"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/config"
	"fiscal_service/internal/events"
	"fiscal_service/internal/models"
)

// SyncService materializes directory group membership into access grants
// and a global role set. It runs synchronously inside a successful
// directory-backed login, never on its own schedule, and bypasses the
// OWNER gate of GrantService because it is system-triggered.
type SyncService struct {
	cfg            *config.DirectorySyncConfig
	grants         GrantStore
	rcs            RCStore
	accounts       AccountStore
	eventPublisher events.Publisher
}

type SyncResult struct {
	MatchedMappings int
	GrantsCreated   int
	GrantsUpdated   int
	GrantsUnchanged int
	Skipped         int
	Roles           []string
	IsAdmin         bool
}

func NewSyncService(cfg *config.DirectorySyncConfig, grants GrantStore, rcs RCStore, accounts AccountStore, eventPublisher events.Publisher) *SyncService {
	return &SyncService{
		cfg:            cfg,
		grants:         grants,
		rcs:            rcs,
		accounts:       accounts,
		eventPublisher: eventPublisher,
	}
}

// SyncDirectoryGroups intersects the raw group identifiers from the
// authenticator with the configured mapping table and upserts one
// group-principal grant per mapped responsibility centre. A mapping that
// references an unknown RC, or fails for any other reason, is logged and
// skipped; it never aborts the remaining mappings or the login. Running
// twice with the same inputs leaves the store untouched.
func (s *SyncService) SyncDirectoryGroups(ctx context.Context, username string, rawGroupIdentifiers []string) (*SyncResult, error) {
	result := &SyncResult{}

	if s.cfg == nil || !s.cfg.Enabled {
		return result, nil
	}

	matched := s.cfg.MappingsForGroups(rawGroupIdentifiers)
	result.MatchedMappings = len(matched)
	if len(matched) == 0 {
		return result, nil
	}

	roleSet := make(map[string]bool)
	for _, mapping := range matched {
		if mapping.ApplicationRole != "" {
			roleSet[mapping.ApplicationRole] = true
		}
		// Most-privileged wins across all matched mappings.
		if mapping.IsAdmin {
			result.IsAdmin = true
		}

		s.materializeMapping(ctx, mapping, result)
	}

	for role := range roleSet {
		result.Roles = append(result.Roles, role)
	}
	sort.Strings(result.Roles)

	s.writeAccountRoles(ctx, username, result)

	if s.eventPublisher != nil {
		err := s.eventPublisher.PublishDirectorySynced(ctx, username, result.MatchedMappings, result.GrantsCreated, result.GrantsUpdated, result.IsAdmin)
		if err != nil {
			log.Printf("Warning: Failed to publish DirectorySynced event: %v", err)
		}
	}

	log.Printf("Directory sync for %s: %d mappings, %d created, %d updated, %d unchanged, %d skipped",
		username, result.MatchedMappings, result.GrantsCreated, result.GrantsUpdated, result.GrantsUnchanged, result.Skipped)
	return result, nil
}

// materializeMapping upserts one group grant per RC the mapping names.
// Each RC is handled independently so a failure on one does not roll back
// grants already committed for another.
func (s *SyncService) materializeMapping(ctx context.Context, mapping config.GroupRoleMapping, result *SyncResult) {
	rcIdentifiers := make([]string, 0, len(mapping.RCAccess))
	for rcIdentifier := range mapping.RCAccess {
		rcIdentifiers = append(rcIdentifiers, rcIdentifier)
	}
	sort.Strings(rcIdentifiers)

	for _, rcIdentifier := range rcIdentifiers {
		level := mapping.RCAccess[rcIdentifier]

		if err := s.upsertGroupGrant(ctx, mapping, rcIdentifier, level, result); err != nil {
			log.Printf("Skipping mapping '%s' for RC '%s': %s", mapping.GroupIdentifier, rcIdentifier, err)
			result.Skipped++
		}
	}
}

func (s *SyncService) upsertGroupGrant(ctx context.Context, mapping config.GroupRoleMapping, rcIdentifier string, level models.AccessLevel, result *SyncResult) error {
	rc, err := s.rcs.FindByIdentifier(ctx, rcIdentifier)
	if err != nil {
		return err
	}
	if rc == nil {
		return &apperrors.ConfigurationError{Entry: mapping.GroupIdentifier, Reason: "unknown responsibility centre '" + rcIdentifier + "'"}
	}

	principal := models.GroupPrincipal(mapping.GroupIdentifier, mapping.GroupIdentifier)

	existing, err := s.grants.FindByRCAndPrincipal(ctx, rc.ID, principal)
	if err != nil {
		return err
	}

	if existing == nil {
		grant := &models.AccessGrant{
			RCID:      rc.ID,
			Principal: principal,
			Level:     level,
			GrantedAt: int(time.Now().Unix()),
			GrantedBy: "directory-sync",
		}
		if _, err := s.grants.Insert(ctx, grant); err != nil {
			return err
		}
		result.GrantsCreated++
		return nil
	}

	if existing.Level != level {
		if err := s.grants.UpdateLevel(ctx, existing.ID, level); err != nil {
			return err
		}
		result.GrantsUpdated++
		return nil
	}

	result.GrantsUnchanged++
	return nil
}

// writeAccountRoles stores the unioned role set and admin flag on the
// account. An unknown username is auto-provisioned only when the config
// allows it; otherwise the role write is skipped but the group grants
// above still stand, since they belong to the group, not the user.
func (s *SyncService) writeAccountRoles(ctx context.Context, username string, result *SyncResult) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		log.Printf("Warning: Could not look up account '%s' during sync: %v", username, err)
		return
	}

	if account == nil {
		if !s.cfg.AutoProvision {
			log.Printf("Account '%s' unknown and auto-provision disabled, skipping role write", username)
			return
		}

		account = &models.UserAccount{
			Username:         username,
			IsActive:         true,
			DirectoryManaged: true,
		}
		if _, err := s.accounts.NewAccount(ctx, account); err != nil {
			log.Printf("Warning: Failed to auto-provision account '%s': %v", username, err)
			return
		}
		log.Printf("Auto-provisioned directory account '%s'", username)
	}

	if err := s.accounts.UpdateDirectoryRoles(ctx, username, result.Roles, result.IsAdmin); err != nil {
		log.Printf("Warning: Failed to write roles for account '%s': %v", username, err)
	}
}
