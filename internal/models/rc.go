package models

import "go.mongodb.org/mongo-driver/v2/bson"

// ResponsibilityCentre is the securable unit all fiscal records hang off.
// OwnerUsername is captured at creation and confers an implicit OWNER
// level that is never stored as a grant row and cannot be revoked through
// the grant management API.
type ResponsibilityCentre struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Identifier    string        `bson:"identifier" json:"identifier" validate:"required"`
	Name          string        `bson:"name" json:"name" validate:"required"`
	FiscalYear    string        `bson:"fiscalYear,omitempty" json:"fiscalYear"`
	OwnerUsername string        `bson:"ownerUsername" json:"ownerUsername"`
	IsActive      bool          `bson:"isActive" json:"isActive"`
	CreatedAt     int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     int           `bson:"updatedAt" json:"updatedAt"`
}
