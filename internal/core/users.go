package core

import (
	"fmt"
	"strings"

	"pulsewatch.io/sentiment-api/internal/auth"
	"pulsewatch.io/sentiment-api/internal/cache"
	"pulsewatch.io/sentiment-api/internal/store"
)

// UserService owns registration, credential checks, and profile mutation.
// Every mutation (and logout) invalidates the profile-cache entry before
// reporting success, so the read-through path never serves a stale profile.
type UserService struct {
	dbStore      *store.SQLiteStore
	profileCache cache.ProfileCache
}

func NewUserService(db *store.SQLiteStore, pc cache.ProfileCache) *UserService {
	return &UserService{dbStore: db, profileCache: pc}
}

// RegisterParams covers both the normal and enterprise registration
// payloads; the company fields only apply to enterprise accounts.
type RegisterParams struct {
	Email           string
	Username        string
	Password        string
	Role            string
	CompanyName     string
	BusinessAddress string
	TaxID           string
}

func (s *UserService) Register(p RegisterParams) (*store.User, error) {
	existing, err := s.dbStore.GetUserByEmail(p.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	hashed, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &store.User{
		Email:           strings.ToLower(p.Email),
		Username:        p.Username,
		PasswordHash:    hashed,
		Role:            p.Role,
		CompanyName:     p.CompanyName,
		BusinessAddress: p.BusinessAddress,
		TaxID:           p.TaxID,
	}
	created, err := s.dbStore.CreateUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// Authenticate checks the password for the given email and returns the
// user on success.
func (s *UserService) Authenticate(email, password string) (*store.User, error) {
	user, err := s.dbStore.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByEmail resolves an identity through the profile cache, falling back
// to the store and populating the cache on a miss. Returns nil when no
// such user exists.
func (s *UserService) GetByEmail(email string) (*store.User, error) {
	key := cache.ProfileKey(email)
	if user, ok := s.profileCache.Get(key); ok {
		return user, nil
	}

	user, err := s.dbStore.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		s.profileCache.Set(key, user)
	}
	return user, nil
}

// UpdateProfile applies the mutable profile fields. Empty parameters keep
// the current value. The cache entry is invalidated before returning.
func (s *UserService) UpdateProfile(email, username, companyName, businessAddress, taxID string) (*store.User, error) {
	user, err := s.dbStore.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if username == "" {
		username = user.Username
	}
	if companyName == "" {
		companyName = user.CompanyName
	}
	if businessAddress == "" {
		businessAddress = user.BusinessAddress
	}
	if taxID == "" {
		taxID = user.TaxID
	}

	if err := s.dbStore.UpdateUserProfile(email, username, companyName, businessAddress, taxID); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if err := s.invalidate(email); err != nil {
		return nil, err
	}
	return s.dbStore.GetUserByEmail(email)
}

// ChangePassword verifies the old password before storing the new hash.
// The cache entry is invalidated before returning.
func (s *UserService) ChangePassword(email, oldPassword, newPassword string) error {
	user, err := s.dbStore.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !auth.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.dbStore.UpdateUserPassword(email, hashed); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return s.invalidate(email)
}

// Logout drops the cached profile so a revoked session cannot be served
// from the cache. The client must also discard its token.
func (s *UserService) Logout(email string) error {
	return s.invalidate(email)
}

func (s *UserService) invalidate(email string) error {
	if err := s.profileCache.Delete(cache.ProfileKey(email)); err != nil {
		return fmt.Errorf("failed to invalidate profile cache: %w", err)
	}
	return nil
}
