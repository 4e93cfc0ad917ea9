package service

import (
	"context"
	"fmt"

	"fiscal_service/internal/models"
)

// AccessService resolves the effective access level a subject holds on a
// responsibility centre. Resolution always re-reads current grant rows so
// a revocation or group membership change takes effect on the very next
// check; nothing here is cached.
type AccessService struct {
	grants GrantStore
}

func NewAccessService(grants GrantStore) *AccessService {
	return &AccessService{grants: grants}
}

// GetEffectiveAccessLevel combines implicit ownership, direct user grants
// and group/distribution-list grants into a single level, highest wins.
// Returns AccessLevelNone when nothing applies. The model is strictly
// additive: no grant can lower a level reachable another way.
func (s *AccessService) GetEffectiveAccessLevel(ctx context.Context, rc *models.ResponsibilityCentre, subject Subject) (models.AccessLevel, error) {
	if subject.Username != "" && subject.Username == rc.OwnerUsername {
		return models.AccessLevelOwner, nil
	}

	grants, err := s.grants.FindByRCForSubject(ctx, rc.ID, subject.Username, subject.GroupIdentifiers)
	if err != nil {
		return models.AccessLevelNone, fmt.Errorf("error resolving access level: %w", err)
	}

	effective := models.AccessLevelNone
	for _, grant := range grants {
		if grant.Level > effective {
			effective = grant.Level
		}
	}
	return effective, nil
}

// CanEditContent reports whether the subject may modify fiscal records
// under the responsibility centre (READ_WRITE or OWNER).
func (s *AccessService) CanEditContent(ctx context.Context, rc *models.ResponsibilityCentre, subject Subject) (bool, error) {
	level, err := s.GetEffectiveAccessLevel(ctx, rc, subject)
	if err != nil {
		return false, err
	}
	return level >= models.AccessLevelReadWrite, nil
}

// CanManageRC reports whether the subject may administer the grants of the
// responsibility centre (OWNER only).
func (s *AccessService) CanManageRC(ctx context.Context, rc *models.ResponsibilityCentre, subject Subject) (bool, error) {
	level, err := s.GetEffectiveAccessLevel(ctx, rc, subject)
	if err != nil {
		return false, err
	}
	return level == models.AccessLevelOwner, nil
}

// IsOwner is equivalent to CanManageRC: an OWNER-level grant and
// structural ownership are interchangeable for this check.
func (s *AccessService) IsOwner(ctx context.Context, rc *models.ResponsibilityCentre, subject Subject) (bool, error) {
	return s.CanManageRC(ctx, rc, subject)
}
