package events

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"fiscal_service/internal/models"
)

type EventType string

const (
	// GrantCreated is published when an access grant row is inserted.
	GrantCreated EventType = "grant.created"
	// GrantUpdated is published when a grant's access level changes.
	GrantUpdated EventType = "grant.updated"
	// GrantRevoked is published when a grant row is deleted.
	GrantRevoked EventType = "grant.revoked"
	// DirectorySynced is published after a login-time group sync completes.
	DirectorySynced EventType = "directory.synced"
	// AccountRegistered is published when a user account is created.
	AccountRegistered EventType = "account.registered"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

type GrantEvent struct {
	BaseEvent
	GrantID       string `json:"grant_id"`
	RCID          string `json:"rc_id"`
	PrincipalType string `json:"principal_type"`
	PrincipalID   string `json:"principal_id"`
	AccessLevel   string `json:"access_level"`
	ActedBy       string `json:"acted_by"`
}

func NewGrantEvent(eventType EventType, grant *models.AccessGrant, actedBy string) *GrantEvent {
	return &GrantEvent{
		BaseEvent:     newBaseEvent(eventType),
		GrantID:       grant.ID.Hex(),
		RCID:          grant.RCID.Hex(),
		PrincipalType: string(grant.Principal.Type),
		PrincipalID:   grant.Principal.ID,
		AccessLevel:   grant.Level.String(),
		ActedBy:       actedBy,
	}
}

func (e *GrantEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type DirectorySyncedEvent struct {
	BaseEvent
	Username      string `json:"username"`
	MatchedGroups int    `json:"matched_groups"`
	GrantsCreated int    `json:"grants_created"`
	GrantsUpdated int    `json:"grants_updated"`
	IsAdmin       bool   `json:"is_admin"`
}

func NewDirectorySyncedEvent(username string, matchedGroups, created, updated int, isAdmin bool) *DirectorySyncedEvent {
	return &DirectorySyncedEvent{
		BaseEvent:     newBaseEvent(DirectorySynced),
		Username:      username,
		MatchedGroups: matchedGroups,
		GrantsCreated: created,
		GrantsUpdated: updated,
		IsAdmin:       isAdmin,
	}
}

func (e *DirectorySyncedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type AccountRegisteredEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewAccountRegisteredEvent(userID, username, email string) *AccountRegisteredEvent {
	return &AccountRegisteredEvent{
		BaseEvent: newBaseEvent(AccountRegistered),
		UserID:    userID,
		Username:  username,
		Email:     email,
	}
}

func (e *AccountRegisteredEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func newBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        generateEventID(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

func generateEventID() string {
	now := time.Now()
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return now.Format("20060102150405") + "-" + strconv.FormatInt(now.UnixNano(), 16)
	}
	return now.Format("20060102150405") + "-" + hex.EncodeToString(buf)
}
