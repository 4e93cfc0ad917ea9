package models

import (
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserAccount struct {
	ID                  bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username            string        `bson:"username" json:"username" validate:"required"`
	Email               string        `bson:"email,omitempty" json:"email" validate:"email"`
	PasswordHash        string        `bson:"passwordHash,omitempty" json:"-"`
	IsActive            bool          `bson:"isActive" json:"isActive"`
	IsAdmin             bool          `bson:"isAdmin" json:"isAdmin"`
	Roles               []string      `bson:"roles,omitempty" json:"roles"`
	DirectoryManaged    bool          `bson:"directoryManaged" json:"directoryManaged"`
	FailedLoginAttempts int           `bson:"failedLoginAttempts" json:"-"`
	CreatedAt           int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           int           `bson:"updatedAt" json:"updatedAt"`
	LastLoginAt         int           `bson:"lastLoginAt,omitempty" json:"lastLoginAt"`
}

type Session struct {
	Token          string `bson:"token" json:"-"`
	Username       string `bson:"username" json:"username"`
	UserAgent      string `bson:"userAgent" json:"userAgent"`
	IPAddress      string `bson:"ipAddress" json:"ipAddress"`
	IsValid        bool   `bson:"isValid" json:"isValid"`
	CreatedAt      int    `bson:"createdAt" json:"createdAt"`
	LastActivityAt int    `bson:"lastActivityAt" json:"lastActivityAt"`
}

type Claims struct {
	jwt.RegisteredClaims
	Id       string
	Username string
	Email    string
	Roles    []string
	IsAdmin  bool
}
