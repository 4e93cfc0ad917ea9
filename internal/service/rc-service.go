package service

import (
	"context"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RCService covers the responsibility centre surface the access model
// protects: creation captures the structural owner, reads and edits go
// through the resolver.
type RCService struct {
	rcs    RCManagementStore
	access *AccessService
}

func NewRCService(rcs RCManagementStore, access *AccessService) *RCService {
	return &RCService{
		rcs:    rcs,
		access: access,
	}
}

// CreateRC creates a responsibility centre owned by the creator. The
// owner is fixed at creation and holds implicit OWNER from then on.
func (s *RCService) CreateRC(ctx context.Context, identifier, name, fiscalYear string, creator Subject) (*models.ResponsibilityCentre, error) {
	if identifier == "" {
		return nil, &apperrors.ValidationError{Field: "identifier", Reason: "identifier is required"}
	}
	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Reason: "name is required"}
	}

	rc := &models.ResponsibilityCentre{
		Identifier:    identifier,
		Name:          name,
		FiscalYear:    fiscalYear,
		OwnerUsername: creator.Username,
	}

	return s.rcs.Create(ctx, rc)
}

// GetRC returns the responsibility centre if the subject holds any
// effective level on it.
func (s *RCService) GetRC(ctx context.Context, id bson.ObjectID, subject Subject) (*models.ResponsibilityCentre, models.AccessLevel, error) {
	rc, err := s.rcs.FindByID(ctx, id)
	if err != nil {
		return nil, models.AccessLevelNone, err
	}
	if rc == nil {
		return nil, models.AccessLevelNone, &apperrors.NotFoundError{Resource: "responsibility centre", Key: id.Hex()}
	}

	level, err := s.access.GetEffectiveAccessLevel(ctx, rc, subject)
	if err != nil {
		return nil, models.AccessLevelNone, err
	}
	if level == models.AccessLevelNone {
		return nil, models.AccessLevelNone, &apperrors.AuthorizationError{Username: subject.Username, Operation: "read RC " + rc.Identifier}
	}

	return rc, level, nil
}

// UpdateRC changes the mutable fields (name, fiscal year) and requires
// content-edit level. Ownership never changes through this path.
func (s *RCService) UpdateRC(ctx context.Context, id bson.ObjectID, name, fiscalYear string, subject Subject) (*models.ResponsibilityCentre, error) {
	rc, err := s.rcs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, &apperrors.NotFoundError{Resource: "responsibility centre", Key: id.Hex()}
	}

	canEdit, err := s.access.CanEditContent(ctx, rc, subject)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, &apperrors.AuthorizationError{Username: subject.Username, Operation: "edit RC " + rc.Identifier}
	}

	if name != "" {
		rc.Name = name
	}
	if fiscalYear != "" {
		rc.FiscalYear = fiscalYear
	}

	if err := s.rcs.Update(ctx, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

// ListAccessibleRCs returns the responsibility centres the subject holds
// any level on, with the resolved level per centre. Each centre is
// resolved fresh against current grant rows.
func (s *RCService) ListAccessibleRCs(ctx context.Context, subject Subject, page, limit int) ([]*models.ResponsibilityCentre, map[string]models.AccessLevel, error) {
	rcs, err := s.rcs.FindAll(ctx, page, limit)
	if err != nil {
		return nil, nil, err
	}

	accessible := make([]*models.ResponsibilityCentre, 0, len(rcs))
	levels := make(map[string]models.AccessLevel)
	for _, rc := range rcs {
		level, err := s.access.GetEffectiveAccessLevel(ctx, rc, subject)
		if err != nil {
			return nil, nil, err
		}
		if level == models.AccessLevelNone {
			continue
		}
		accessible = append(accessible, rc)
		levels[rc.ID.Hex()] = level
	}

	return accessible, levels, nil
}
