package core

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskquest/internal/repository"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// AuthService verifies bearer tokens issued by the account service.
// Accounts are owned elsewhere; this side only checks signatures and tracks logins.
type AuthService interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
	IssueToken(user *models.User) (string, time.Time, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	users     repository.UserRepository
	clock     Clock
	jwtSecret []byte
	jwtIssuer string
	jwtExpiry time.Duration
}

// JWT claims structure
type jwtClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(users repository.UserRepository, clock Clock, jwtSecret, jwtIssuer string, jwtExpiry time.Duration) AuthService {
	if clock == nil {
		clock = SystemClock()
	}
	return &authService{
		users:     users,
		clock:     clock,
		jwtSecret: []byte(jwtSecret),
		jwtIssuer: jwtIssuer,
		jwtExpiry: jwtExpiry,
	}
}

// ValidateToken verifies a JWT and returns its user.
// The first request of each day counts as a login for the active-user window.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, models.ErrInvalidToken
	}
	// validated against the service clock rather than the wall clock
	now := s.clock.Now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyIssuedAt(now, false) {
		return nil, models.ErrInvalidToken
	}
	if s.jwtIssuer != "" && !claims.VerifyIssuer(s.jwtIssuer, true) {
		return nil, models.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	if user.LastLoginAt == nil || !utils.SameDay(*user.LastLoginAt, now, time.UTC) {
		if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("failed to record login: %w", err)
		}
		user.LastLoginAt = &now
	}
	return user, nil
}

// IssueToken signs a token for user. Used by local tooling; production tokens come from the account service.
func (s *authService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.jwtExpiry)

	claims := &jwtClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// GetUserByID retrieves a user by ID
func (s *authService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return user, nil
}
