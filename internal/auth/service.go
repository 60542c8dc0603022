package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrUserLocked         = errors.New("account temporarily locked")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
)

// Lockout policy: 5 failed attempts locks the account for 15 minutes.
const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// TokenPair is returned on successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service implements registration, login, and token lifecycle.
type Service struct {
	users  *UserStore
	tokens *TokenService
	logger *zap.Logger
}

// NewService creates the auth service.
func NewService(users *UserStore, tokens *TokenService, logger *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Tokens exposes the token service for middleware wiring.
func (s *Service) Tokens() *TokenService { return s.tokens }

// Register creates a new user account and returns it with a token pair.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, *TokenPair, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" || email == "" {
		return nil, nil, fmt.Errorf("username and email are required")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, nil, ErrUserExists
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, nil, ErrUserExists
	}

	hash, err := HashPassword(password, 0)
	if err != nil {
		return nil, nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", username))
	return user, pair, nil
}

// Login authenticates a user and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*User, *TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.Disabled {
		return nil, nil, ErrUserDisabled
	}
	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return nil, nil, ErrUserLocked
	}

	if !CheckPassword(user.PasswordHash, password) {
		attempts, rerr := s.users.RecordFailedLogin(ctx, user.ID)
		if rerr != nil {
			s.logger.Warn("failed to record login attempt", zap.Error(rerr))
		} else if attempts >= maxFailedLogins {
			until := time.Now().Add(lockoutDuration)
			if lerr := s.users.LockAccount(ctx, user.ID, until); lerr != nil {
				s.logger.Warn("failed to lock account", zap.Error(lerr))
			} else {
				s.logger.Warn("account locked after repeated failures",
					zap.String("user_id", user.ID), zap.Time("until", until))
			}
		}
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.users.ClearFailedLogins(ctx, user.ID); err != nil {
		s.logger.Warn("failed to clear lockout state", zap.Error(err))
	}
	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}
	user.LastLogin = now

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, pair, nil
}

// Refresh rotates a refresh token and issues a new token pair.
// The presented token is revoked whether or not rotation succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, tokenID, err := s.users.GetRefreshToken(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}

	if err := s.users.RevokeRefreshToken(ctx, tokenID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if user.Disabled {
		return nil, ErrUserDisabled
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	_, tokenID, err := s.users.GetRefreshToken(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil
		}
		return err
	}
	return s.users.RevokeRefreshToken(ctx, tokenID)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *Service) issueTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.tokens.RefreshTokenTTL())
	if err := s.users.SaveRefreshToken(ctx, uuid.NewString(), user.ID, HashToken(refresh), expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}
