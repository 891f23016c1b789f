package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/marketchat/internal/store"
)

var (
	// ErrUnknownUser is returned when a token is requested for a missing member.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidNickname is returned when a nickname doesn't meet constraints.
	ErrInvalidNickname = errors.New("invalid nickname")
)

// Service issues and checks member tokens.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// CreateMember adds a member and returns it with a fresh token.
func (s *Service) CreateMember(ctx context.Context, nickname, avatarURL string) (*store.User, string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || len(nickname) > 32 {
		return nil, "", ErrInvalidNickname
	}

	user, err := s.store.CreateUser(ctx, nickname, strings.TrimSpace(avatarURL))
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Nickname, user.AvatarURL)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// IssueToken returns a token for an existing member.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUnknownUser
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Nickname, user.AvatarURL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
