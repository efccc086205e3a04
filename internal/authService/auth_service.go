package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
	"auctions/internal/repository"
	"auctions/utils"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLength = 150
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// RegisterInput is the sign-up form
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Confirmation string
}

// Session is what a successful login or registration hands back to the client
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// AuthService registers users and manages their sessions
type AuthService struct {
	users      repository.UserStore
	tokens     *TokenManager
	revoked    *revocationList
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new AuthService instance
func NewAuthService(users repository.UserStore, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		revoked:    newRevocationList(),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register creates an account and logs the new user in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateRegistration(in); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("service: hash password: %w", err)
	}

	user := model.User{
		ID:           utils.GenerateID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return Session{}, fmt.Errorf("service: failed to register user %s: %w", in.Username, err)
	}

	utils.Info("user registered", map[string]any{"user_id": user.ID, "username": user.Username})
	return s.startSession(user)
}

// Login checks the credentials and starts a session. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, fmt.Errorf("service: %w - username and password are required", auctionerrors.ErrInvalidCredentials)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, auctionerrors.ErrUserNotFound) {
		return Session{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}
	if err != nil {
		return Session{}, fmt.Errorf("service: failed to load user %s: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}

	return s.startSession(user)
}

// Logout revokes the session behind identity
func (s *AuthService) Logout(_ context.Context, identity Identity) error {
	if identity.SessionID == "" {
		return fmt.Errorf("service: %w - no session", auctionerrors.ErrUnauthenticated)
	}
	s.revoked.revoke(identity.SessionID, identity.ExpiresAt, s.now())
	utils.Info("user logged out", map[string]any{"user_id": identity.UserID})
	return nil
}

// Verify resolves a session token to the identity it was issued for
func (s *AuthService) Verify(token string) (Identity, error) {
	identity, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, err
	}
	if s.revoked.isRevoked(identity.SessionID) {
		return Identity{}, fmt.Errorf("%w - session has been logged out", auctionerrors.ErrUnauthenticated)
	}
	return identity, nil
}

func (s *AuthService) startSession(user model.User) (Session, error) {
	token, identity, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("service: %w", err)
	}
	return Session{Token: token, ExpiresAt: identity.ExpiresAt, User: user}, nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case in.Username == "" || in.Email == "" || in.Password == "":
		return fmt.Errorf("service: %w - username, email and password are required", auctionerrors.ErrInvalidRegistration)
	case utf8.RuneCountInString(in.Username) > maxUsernameLength:
		return fmt.Errorf("service: %w - username longer than %d characters", auctionerrors.ErrInvalidRegistration, maxUsernameLength)
	case len(in.Password) < minPasswordLength:
		return fmt.Errorf("service: %w - password shorter than %d characters", auctionerrors.ErrInvalidRegistration, minPasswordLength)
	case len(in.Password) > maxPasswordBytes:
		return fmt.Errorf("service: %w - password longer than %d bytes", auctionerrors.ErrInvalidRegistration, maxPasswordBytes)
	case in.Password != in.Confirmation:
		return fmt.Errorf("service: %w - passwords must match", auctionerrors.ErrInvalidRegistration)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("service: %w - invalid email address", auctionerrors.ErrInvalidRegistration)
	}
	return nil
}
