// Package service implements account workflows: signup with email
// verification, login gated on the verified flag, logout via token
// revocation, and profile management.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"golang.org/x/crypto/bcrypt"

	"volunity/internal/identity"
	"volunity/internal/identity/metrics"
	"volunity/internal/identity/store"
	"volunity/internal/platform/config"
	"volunity/pkg/authz"
	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/email"
	"volunity/pkg/requestcontext"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID id.UserID, email, role string) (string, error)
	TTL() time.Duration
}

// Revoker invalidates a session token before its natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Service mediates all identity operations.
type Service struct {
	users       store.UserStore
	tokens      TokenIssuer
	revocations Revoker
	notifier    email.Notifier
	logger      *slog.Logger
	metrics     *metrics.Metrics
	clientURL   string
}

// New constructs the identity service.
func New(
	users store.UserStore,
	tokens TokenIssuer,
	revocations Revoker,
	notifier email.Notifier,
	logger *slog.Logger,
	m *metrics.Metrics,
	clientURL string,
) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		notifier:    notifier,
		logger:      logger,
		metrics:     m,
		clientURL:   clientURL,
	}
}

// SignupRequest carries the fields accepted at account creation.
type SignupRequest struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	DateOfBirth *time.Time
	Role        string
}

// Signup creates an unverified account and dispatches the verification email
// best-effort. It never issues a session token.
func (s *Service) Signup(ctx context.Context, req SignupRequest) error {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "email, password, first name and last name are required")
	}
	if !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeValidation, "email address is not valid")
	}
	if len(req.Password) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}

	// Admin is never self-assigned; anything unknown falls back to user.
	role := authz.RoleUser
	if req.Role == authz.RoleOrganizer {
		role = authz.RoleOrganizer
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return dErrors.New(dErrors.CodeConflict, "a user with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return dErrors.Wrap(dErrors.CodeInternal, "could not create account", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not create account", err)
	}

	token, err := generateVerificationToken()
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not create account", err)
	}

	now := requestcontext.Now(ctx)
	expires := now.Add(config.VerificationTokenTTL)
	user := &identity.User{
		ID:                  id.NewUserID(),
		Email:               req.Email,
		PasswordHash:        string(hashed),
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Role:                role,
		Phone:               req.Phone,
		DateOfBirth:         req.DateOfBirth,
		EmailVerified:       false,
		VerificationToken:   token,
		VerificationExpires: &expires,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not create account", err)
	}

	s.metrics.IncUsersCreated()
	s.dispatchVerification(ctx, user.Email, token)

	s.logger.InfoContext(ctx, "user signed up",
		"user_id", user.ID,
		"role", user.Role,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// LoginResult is a signed session token plus the user summary.
type LoginResult struct {
	Token string
	User  identity.Summary
}

// Login authenticates by email and password. Unknown email and wrong password
// are indistinguishable to the caller; unverified accounts get a distinct
// code so the client can route to the resend-verification flow.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*LoginResult, error) {
	if emailAddr == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(emailAddr)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not log in", err)
	}

	if !user.EmailVerified {
		return nil, dErrors.New(dErrors.CodeEmailNotVerified, "email is not verified, check your inbox")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not log in", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &LoginResult{Token: token, User: identity.Summarize(user)}, nil
}

// Logout revokes the caller's current token until its natural expiry.
func (s *Service) Logout(ctx context.Context) error {
	jti := requestcontext.TokenID(ctx)
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	if err := s.revocations.Revoke(ctx, jti, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not log out", err)
	}
	return nil
}

// generateVerificationToken mints an unguessable 32-byte hex token.
func generateVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// dispatchVerification sends the verification email without blocking the
// request. Failures are logged and never retried.
func (s *Service) dispatchVerification(ctx context.Context, to, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.clientURL, token)
	requestID := requestcontext.RequestID(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.SendVerification(sendCtx, to, link); err != nil {
			s.logger.Error("failed to send verification email",
				"error", err,
				"request_id", requestID,
			)
		}
	}()
}
