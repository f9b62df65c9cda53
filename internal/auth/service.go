package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/speechroom/speechroom-server/internal/store"
)

// DevTherapistID identifies the demo therapist used when dev mode is on.
const DevTherapistID = "mock-therapist-id"

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering an email that is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidEmail is returned when the email cannot be parsed.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidName is returned when the display name is empty or too long.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

const minPasswordLength = 6

// Service provides therapist authentication.
type Service struct {
	store     store.TherapistStore
	jwtConfig *JWTConfig
	devMode   bool
}

// NewService creates a new authentication service. In dev mode every request is
// treated as coming from the demo therapist.
func NewService(therapists store.TherapistStore, jwtConfig *JWTConfig, devMode bool) *Service {
	return &Service{
		store:     therapists,
		jwtConfig: jwtConfig,
		devMode:   devMode,
	}
}

// DevMode reports whether authentication is stubbed.
func (s *Service) DevMode() bool {
	return s.devMode
}

// DevClaims returns the claims of the demo therapist.
func (s *Service) DevClaims() *Claims {
	return &Claims{TherapistID: DevTherapistID, Name: "Demo Therapist", Role: RoleTherapist}
}

// Register creates a therapist account and returns a signed token.
func (s *Service) Register(ctx context.Context, email, name, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	if name == "" || len(name) > 64 {
		return "", ErrInvalidName
	}
	if len(password) < minPasswordLength {
		return "", ErrInvalidPassword
	}

	if _, err := s.store.GetTherapistByEmail(ctx, email); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("lookup therapist: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	therapist, err := s.store.CreateTherapist(ctx, email, name, string(hash))
	if err != nil {
		return "", fmt.Errorf("create therapist: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, therapist.ID, therapist.Name)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Login validates credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	therapist, err := s.store.GetTherapistByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(therapist.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, therapist.ID, therapist.Name)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
