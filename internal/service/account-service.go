package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fiscal_service/internal/events"
	"fiscal_service/internal/models"

	"golang.org/x/crypto/bcrypt"
)

type AccountService struct {
	accounts            AccountStore
	cache               CacheStore
	syncService         *SyncService
	mu                  *sync.Mutex
	FailedLoginAttempts map[string]*FailedLoginAttempt
	eventPublisher      events.Publisher
}

type FailedLoginAttempt struct {
	failed_at     int64
	failed_number int
}

func NewAccountService(accounts AccountStore, cache CacheStore, syncService *SyncService, eventPublisher events.Publisher) *AccountService {
	return &AccountService{
		accounts:            accounts,
		cache:               cache,
		syncService:         syncService,
		mu:                  &sync.Mutex{},
		FailedLoginAttempts: make(map[string]*FailedLoginAttempt),
		eventPublisher:      eventPublisher,
	}
}

func (as *AccountService) Register(ctx context.Context, username, email, password string) (*models.UserAccount, error) {
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &models.UserAccount{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}

	created, err := as.accounts.NewAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	log.Printf("New account created: %s", created.Username)

	if as.eventPublisher != nil {
		err := as.eventPublisher.PublishAccountRegistered(ctx, created.ID.Hex(), created.Username, created.Email)
		if err != nil {
			log.Printf("Warning: Failed to publish AccountRegistered event: %v", err)
		}
	}

	return created, nil
}

// Login verifies the local password, with the same lockout scheme the
// platform's other services use: instant lock on sub-second retries and a
// ten-minute lock after repeated failures.
func (as *AccountService) Login(ctx context.Context, username, password string) (*models.UserAccount, error) {
	lockKey := "fiscal-service-lock-user-" + username
	if as.cache.GetInt(ctx, lockKey) != 0 {
		return nil, fmt.Errorf("user is locked")
	}

	account, err := as.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error finding username: %s", err)
	}
	if account == nil {
		return nil, fmt.Errorf("error finding user with username password: unknown user")
	}

	login_time := time.Now().Local().UnixMilli()

	if !verifyPassword(account, password) {
		as.mu.Lock()
		if as.FailedLoginAttempts[username] == nil {
			as.FailedLoginAttempts[username] = &FailedLoginAttempt{}
		}
		last_failed := as.FailedLoginAttempts[username].failed_at
		failed_nums := as.FailedLoginAttempts[username].failed_number
		as.FailedLoginAttempts[username].failed_at = login_time
		as.FailedLoginAttempts[username].failed_number++
		as.mu.Unlock()

		if login_time-last_failed < 1000 {
			log.Printf("WARN: Suspicious activity detected for user: %s. Instant lock activated", username)
			as.cache.SaveInt(ctx, lockKey, login_time, 10*time.Minute)
		}
		if failed_nums > 10 {
			log.Printf("User %s login failed %v times. Locked for 10 minutes", username, failed_nums)
			as.cache.SaveInt(ctx, lockKey, login_time, 10*time.Minute)
		}

		return nil, fmt.Errorf("error finding user with username password: wrong password")
	}

	if !account.IsActive {
		return nil, fmt.Errorf("user is not activated")
	}

	if err := as.accounts.RecordLogin(ctx, username); err != nil {
		log.Printf("Warning: Failed to record login for %s: %v", username, err)
	}

	return account, nil
}

// DirectoryLogin consumes the output of the external directory
// authenticator (username plus raw group identifiers), runs group sync
// inline and returns the refreshed account. Sync failure never fails the
// login; the session proceeds with whatever grants existed before.
func (as *AccountService) DirectoryLogin(ctx context.Context, username string, groupIdentifiers []string) (*models.UserAccount, *SyncResult, error) {
	result, err := as.syncService.SyncDirectoryGroups(ctx, username, groupIdentifiers)
	if err != nil {
		log.Printf("Warning: Directory sync failed for %s, proceeding with existing grants: %v", username, err)
		result = &SyncResult{}
	}

	account, err := as.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("error finding account after sync: %w", err)
	}
	if account == nil {
		return nil, nil, fmt.Errorf("no account for directory user '%s'", username)
	}
	if !account.IsActive {
		return nil, nil, fmt.Errorf("user is not activated")
	}

	if err := as.accounts.RecordLogin(ctx, username); err != nil {
		log.Printf("Warning: Failed to record login for %s: %v", username, err)
	}

	return account, result, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(account *models.UserAccount, password string) bool {
	if account.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}
