package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"fiscal_service/internal/config"
	"fiscal_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTService struct{}

func NewJWTService() *JWTService {
	return &JWTService{}
}

func (jwt_s *JWTService) GenerateNewToken(username, email string, roles []string, isAdmin bool) (string, error) {
	claim := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(config.ServiceConfig.JWTExpired) * time.Hour)),
			Issuer:    "fiscal-service",
		},
		Id:       "C-" + randomClaimID(),
		Username: username,
		Email:    email,
		Roles:    roles,
		IsAdmin:  isAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	tokenString, err := token.SignedString([]byte(config.ServiceConfig.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("error generating token string: %s", err)
	}
	return tokenString, nil
}

func (jwt_s *JWTService) ParseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(config.ServiceConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing token: %s", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func randomClaimID() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf)
}
