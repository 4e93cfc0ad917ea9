package service

import (
	"context"
	"log"
	"time"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/events"
	"fiscal_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// GrantService is the only path that creates, edits or deletes grant rows
// on behalf of a human requester. Every operation gates on the requester
// holding OWNER on the target responsibility centre.
type GrantService struct {
	grants         GrantStore
	rcs            RCStore
	accounts       AccountStore
	access         *AccessService
	eventPublisher events.Publisher
}

func NewGrantService(grants GrantStore, rcs RCStore, accounts AccountStore, access *AccessService, eventPublisher events.Publisher) *GrantService {
	return &GrantService{
		grants:         grants,
		rcs:            rcs,
		accounts:       accounts,
		access:         access,
		eventPublisher: eventPublisher,
	}
}

// GetPermissionsForRC returns every stored grant for the responsibility
// centre plus a synthesized OWNER entry for the structural owner, so the
// caller sees the complete picture even though ownership is not a row.
// Listing itself requires OWNER, stricter than content read.
func (s *GrantService) GetPermissionsForRC(ctx context.Context, rcID bson.ObjectID, requester Subject) ([]*models.AccessGrant, error) {
	rc, err := s.loadRC(ctx, rcID)
	if err != nil {
		return nil, err
	}

	if err := s.requireManage(ctx, rc, requester, "list permissions"); err != nil {
		return nil, err
	}

	grants, err := s.grants.FindByRC(ctx, rc.ID)
	if err != nil {
		return nil, err
	}

	ownerEntry := &models.AccessGrant{
		RCID:      rc.ID,
		Principal: models.UserPrincipal(rc.OwnerUsername),
		Level:     models.AccessLevelOwner,
		GrantedAt: rc.CreatedAt,
	}

	return append([]*models.AccessGrant{ownerEntry}, grants...), nil
}

// GrantUserAccess grants a direct user-principal level on the
// responsibility centre. The target must resolve to a known account.
func (s *GrantService) GrantUserAccess(ctx context.Context, rcID bson.ObjectID, targetUsername string, level models.AccessLevel, requester Subject) (*models.AccessGrant, error) {
	rc, err := s.loadRC(ctx, rcID)
	if err != nil {
		return nil, err
	}

	if err := s.requireManage(ctx, rc, requester, "grant user access"); err != nil {
		return nil, err
	}

	if !level.IsValid() {
		return nil, &apperrors.ValidationError{Field: "accessLevel", Reason: "level must be READ_ONLY, READ_WRITE or OWNER"}
	}

	target, err := s.accounts.FindByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &apperrors.NotFoundError{Resource: "user account", Key: targetUsername}
	}

	return s.insertGrant(ctx, rc, models.UserPrincipal(targetUsername), level, requester.Username)
}

// GrantGroupAccess grants a group or distribution-list level on the
// responsibility centre. A user principal is the wrong entry point here.
func (s *GrantService) GrantGroupAccess(ctx context.Context, rcID bson.ObjectID, identifier, displayName string, principalType models.PrincipalType, level models.AccessLevel, requester Subject) (*models.AccessGrant, error) {
	rc, err := s.loadRC(ctx, rcID)
	if err != nil {
		return nil, err
	}

	if err := s.requireManage(ctx, rc, requester, "grant group access"); err != nil {
		return nil, err
	}

	var principal models.Principal
	switch principalType {
	case models.PrincipalGroup:
		principal = models.GroupPrincipal(identifier, displayName)
	case models.PrincipalDistributionList:
		principal = models.DistributionListPrincipal(identifier, displayName)
	case models.PrincipalUser:
		return nil, &apperrors.ValidationError{Field: "principalType", Reason: "user principals must go through the user grant operation"}
	default:
		return nil, &apperrors.ValidationError{Field: "principalType", Reason: "unknown principal type"}
	}

	if err := principal.Validate(); err != nil {
		return nil, &apperrors.ValidationError{Field: "principal", Reason: err.Error()}
	}

	if !level.IsValid() {
		return nil, &apperrors.ValidationError{Field: "accessLevel", Reason: "level must be READ_ONLY, READ_WRITE or OWNER"}
	}

	return s.insertGrant(ctx, rc, principal, level, requester.Username)
}

// UpdatePermission overwrites the access level of an existing grant.
// Principal and responsibility centre on the row never change.
func (s *GrantService) UpdatePermission(ctx context.Context, grantID bson.ObjectID, newLevel models.AccessLevel, requester Subject) error {
	grant, err := s.loadGrant(ctx, grantID)
	if err != nil {
		return err
	}

	rc, err := s.loadRC(ctx, grant.RCID)
	if err != nil {
		return err
	}

	if err := s.requireManage(ctx, rc, requester, "update permission"); err != nil {
		return err
	}

	if !newLevel.IsValid() {
		return &apperrors.ValidationError{Field: "accessLevel", Reason: "level must be READ_ONLY, READ_WRITE or OWNER"}
	}

	if err := s.grants.UpdateLevel(ctx, grantID, newLevel); err != nil {
		return err
	}

	grant.Level = newLevel
	s.publishGrantEvent(ctx, events.GrantUpdated, grant, requester.Username)
	return nil
}

// RevokeAccess hard-deletes the grant row. Revoking a nonexistent id is a
// NotFoundError, never a silent no-op.
func (s *GrantService) RevokeAccess(ctx context.Context, grantID bson.ObjectID, requester Subject) error {
	grant, err := s.loadGrant(ctx, grantID)
	if err != nil {
		return err
	}

	rc, err := s.loadRC(ctx, grant.RCID)
	if err != nil {
		return err
	}

	if err := s.requireManage(ctx, rc, requester, "revoke access"); err != nil {
		return err
	}

	if err := s.grants.Delete(ctx, grantID); err != nil {
		return err
	}

	s.publishGrantEvent(ctx, events.GrantRevoked, grant, requester.Username)
	return nil
}

func (s *GrantService) insertGrant(ctx context.Context, rc *models.ResponsibilityCentre, principal models.Principal, level models.AccessLevel, grantedBy string) (*models.AccessGrant, error) {
	// Pre-check for a friendlier ConflictError; the storage unique index on
	// (rcId, principal) is the arbiter when two grants race past this point.
	existing, err := s.grants.FindByRCAndPrincipal(ctx, rc.ID, principal)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &apperrors.ConflictError{Resource: "access grant", Key: principal.Key()}
	}

	grant := &models.AccessGrant{
		RCID:      rc.ID,
		Principal: principal,
		Level:     level,
		GrantedAt: int(time.Now().Unix()),
		GrantedBy: grantedBy,
	}

	inserted, err := s.grants.Insert(ctx, grant)
	if err != nil {
		return nil, err
	}

	s.publishGrantEvent(ctx, events.GrantCreated, inserted, grantedBy)
	return inserted, nil
}

func (s *GrantService) loadRC(ctx context.Context, rcID bson.ObjectID) (*models.ResponsibilityCentre, error) {
	rc, err := s.rcs.FindByID(ctx, rcID)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, &apperrors.NotFoundError{Resource: "responsibility centre", Key: rcID.Hex()}
	}
	return rc, nil
}

func (s *GrantService) loadGrant(ctx context.Context, grantID bson.ObjectID) (*models.AccessGrant, error) {
	grant, err := s.grants.FindByID(ctx, grantID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, &apperrors.NotFoundError{Resource: "access grant", Key: grantID.Hex()}
	}
	return grant, nil
}

func (s *GrantService) requireManage(ctx context.Context, rc *models.ResponsibilityCentre, requester Subject, operation string) error {
	canManage, err := s.access.CanManageRC(ctx, rc, requester)
	if err != nil {
		return err
	}
	if !canManage {
		return &apperrors.AuthorizationError{Username: requester.Username, Operation: operation + " on RC " + rc.Identifier}
	}
	return nil
}

func (s *GrantService) publishGrantEvent(ctx context.Context, eventType events.EventType, grant *models.AccessGrant, actedBy string) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.PublishGrantEvent(ctx, eventType, grant, actedBy); err != nil {
		log.Printf("Warning: Failed to publish %s event: %v", eventType, err)
	}
}
