package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AccessLevel is the ordered permission level on a responsibility centre.
// Higher values always win when a subject holds several grants.
type AccessLevel int

const (
	AccessLevelNone AccessLevel = iota
	AccessLevelReadOnly
	AccessLevelReadWrite
	AccessLevelOwner
)

func (l AccessLevel) String() string {
	switch l {
	case AccessLevelReadOnly:
		return "READ_ONLY"
	case AccessLevelReadWrite:
		return "READ_WRITE"
	case AccessLevelOwner:
		return "OWNER"
	default:
		return "NONE"
	}
}

func (l AccessLevel) IsValid() bool {
	return l == AccessLevelReadOnly || l == AccessLevelReadWrite || l == AccessLevelOwner
}

func ParseAccessLevel(s string) (AccessLevel, error) {
	switch s {
	case "READ_ONLY":
		return AccessLevelReadOnly, nil
	case "READ_WRITE":
		return AccessLevelReadWrite, nil
	case "OWNER":
		return AccessLevelOwner, nil
	default:
		return AccessLevelNone, fmt.Errorf("unknown access level '%s'", s)
	}
}

func (l AccessLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *AccessLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAccessLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// PrincipalType is a closed set. Every switch over it must handle all
// three kinds; there is no open-ended subclassing here.
type PrincipalType string

const (
	PrincipalUser             PrincipalType = "user"
	PrincipalGroup            PrincipalType = "group"
	PrincipalDistributionList PrincipalType = "distributionList"
)

// Principal identifies who holds an access grant: a user account, a
// directory group, or a distribution list.
type Principal struct {
	Type        PrincipalType `bson:"type" json:"type"`
	ID          string        `bson:"id" json:"id"`
	DisplayName string        `bson:"displayName,omitempty" json:"displayName,omitempty"`
}

func UserPrincipal(username string) Principal {
	return Principal{Type: PrincipalUser, ID: username}
}

func GroupPrincipal(identifier, displayName string) Principal {
	return Principal{Type: PrincipalGroup, ID: identifier, DisplayName: displayName}
}

func DistributionListPrincipal(identifier, displayName string) Principal {
	return Principal{Type: PrincipalDistributionList, ID: identifier, DisplayName: displayName}
}

func (p Principal) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("principal id is empty")
	}
	switch p.Type {
	case PrincipalUser, PrincipalGroup, PrincipalDistributionList:
		return nil
	default:
		return fmt.Errorf("unknown principal type '%s'", p.Type)
	}
}

// Key identifies a principal for duplicate detection; one grant per
// (responsibility centre, Key) pair.
func (p Principal) Key() string {
	return string(p.Type) + "/" + p.ID
}

// AccessGrant is one persisted grant row. RCID and Principal are immutable
// on a row; only Level may change after creation. Revocation deletes the
// row outright, there is no inactive-but-retained state.
type AccessGrant struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	RCID      bson.ObjectID `bson:"rcId" json:"rcId"`
	Principal Principal     `bson:"principal" json:"principal"`
	Level     AccessLevel   `bson:"accessLevel" json:"accessLevel"`
	GrantedAt int           `bson:"grantedAt" json:"grantedAt"`
	GrantedBy string        `bson:"grantedBy,omitempty" json:"grantedBy,omitempty"`
}
