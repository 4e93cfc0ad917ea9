package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"fiscal_service/internal/models"
)

type SessionService struct {
	JWTService *JWTService
	cache      CacheStore
}

func NewSessionService(cache CacheStore) *SessionService {
	return &SessionService{
		JWTService: NewJWTService(),
		cache:      cache,
	}
}

func (s *SessionService) NewSession(ctx context.Context, account *models.UserAccount, userAgent, ipAddress string) (*models.Session, error) {
	token, err := s.JWTService.GenerateNewToken(account.Username, account.Email, account.Roles, account.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("error creating new session: %s", err)
	}

	currentTime := int(time.Now().Unix())
	session := &models.Session{
		Token:          token,
		Username:       account.Username,
		UserAgent:      userAgent,
		IPAddress:      ipAddress,
		IsValid:        true,
		CreatedAt:      currentTime,
		LastActivityAt: currentTime,
	}

	if _, err := s.SaveSession(ctx, account.Username, session); err != nil {
		log.Printf("Warning: Failed to cache session for user %s: %v", account.Username, err)
	}

	return session, nil
}

func (s *SessionService) SaveSession(ctx context.Context, username string, session *models.Session) (bool, error) {
	cacheKey := "fiscal-service-session-" + username
	return s.cache.SaveStructCached(ctx, cacheKey, session, 24*time.Hour)
}

func (s *SessionService) GetSession(ctx context.Context, username string) (*models.Session, error) {
	cacheKey := "fiscal-service-session-" + username
	session := &models.Session{}
	err := s.cache.GetStructCached(ctx, cacheKey, session)
	if err != nil {
		return nil, fmt.Errorf("session not found in cache: %w", err)
	}
	return session, nil
}

func (s *SessionService) InvalidateSession(ctx context.Context, username string) error {
	cacheKey := "fiscal-service-session-" + username
	return s.cache.DeleteKey(ctx, cacheKey)
}
