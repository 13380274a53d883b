package service

import (
	"context"
	"errors"

	"volunity/internal/identity/store"
	"volunity/internal/platform/config"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/requestcontext"
)

// ResendGenericMessage is returned for every resend request so callers cannot
// probe which emails have accounts.
const ResendGenericMessage = "if the email exists, we sent a new verification link"

// VerifyEmail flips the verified flag for a valid, unexpired token and clears
// the token so the link is single-use.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "verification token is required")
	}

	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeInvalidInput, "invalid or already used verification link")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "could not verify email", err)
	}

	now := requestcontext.Now(ctx)
	if user.VerificationExpires == nil || user.VerificationExpires.Before(now) {
		return dErrors.New(dErrors.CodeInvalidState, "verification link has expired, request a new one")
	}

	user.EmailVerified = true
	user.VerificationToken = ""
	user.VerificationExpires = nil
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "could not verify email", err)
	}

	s.metrics.IncEmailsVerified()
	s.logger.InfoContext(ctx, "email verified",
		"user_id", user.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// ResendVerification regenerates and resends the verification token for an
// existing unverified account. The response message is identical whether or
// not the email exists.
func (s *Service) ResendVerification(ctx context.Context, emailAddr string) (string, error) {
	if emailAddr == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ResendGenericMessage, nil
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "could not resend verification", err)
	}

	if user.EmailVerified {
		return "email is already verified", nil
	}

	token, err := generateVerificationToken()
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "could not resend verification", err)
	}

	now := requestcontext.Now(ctx)
	expires := now.Add(config.VerificationTokenTTL)
	user.VerificationToken = token
	user.VerificationExpires = &expires
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "could not resend verification", err)
	}

	s.dispatchVerification(ctx, user.Email, token)
	return ResendGenericMessage, nil
}
