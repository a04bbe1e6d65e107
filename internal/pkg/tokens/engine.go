package tokens

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/entitlements"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/lock"
)

const issueLockTTL = 30 * time.Second

// Bare domain only, no path or query. A site URL with a trailing path would
// break the verification endpoint join.
var wordpressURLPattern = regexp.MustCompile(`^(https?://)?([a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)+)$`)

// Engine issues and verifies API tokens. Quota checks run under a per-user
// lock so concurrent issuance cannot overshoot the plan cap.
type Engine struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	tokens   repository.TokenRepository
	verifier PluginVerifier
	locker   lock.Locker
}

// NewEngine creates a token engine from injected collaborators.
func NewEngine(users repository.UserRepository, subs repository.SubscriptionRepository, tokens repository.TokenRepository, verifier PluginVerifier, locker lock.Locker) *Engine {
	return &Engine{
		users:    users,
		subs:     subs,
		tokens:   tokens,
		verifier: verifier,
		locker:   locker,
	}
}

// IssueInput describes a token issuance request.
type IssueInput struct {
	Type         string
	WordpressURL string
}

// Issue creates a new token for the user. The expiry is a snapshot of the
// subscription end date at issuance time; later renewals do not extend it.
func (e *Engine) Issue(ctx context.Context, userID uint, in IssueInput) (*models.APIToken, error) {
	user, err := e.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "User not found!")
		}
		return nil, err
	}
	if user.Subscription.SubscriptionID == nil {
		return nil, apperror.New(apperror.KindNoSubscription, "Please subscribe to a membership!")
	}

	if in.Type != models.TOKEN_TYPE_FACEBOOK && in.Type != models.TOKEN_TYPE_WORDPRESS {
		return nil, apperror.New(apperror.KindValidation, "Incomplete credentials! Token type must be facebook or wordpress.")
	}
	if in.Type == models.TOKEN_TYPE_WORDPRESS {
		if in.WordpressURL == "" {
			return nil, apperror.New(apperror.KindValidation, "Incomplete credentials! WordPress URL is required for WordPress type.")
		}
		if !wordpressURLPattern.MatchString(in.WordpressURL) {
			return nil, apperror.New(apperror.KindValidation, "Invalid WordPress URL! Please provide a valid domain (e.g., https://example.com) without any additional path.")
		}
	}

	sub, err := e.subs.GetByID(*user.Subscription.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNoSubscription, "Subscription not found!")
		}
		return nil, err
	}
	if sub.UserID != user.ID || *user.Subscription.SubscriptionID != sub.ID {
		// Stale or cross-wired summary. Refuse rather than issue against a
		// subscription the user does not own.
		return nil, apperror.New(apperror.KindInvalidSubscription, "Invalid subscription!")
	}

	release, err := e.locker.Acquire(ctx, lock.UserKey(userID), issueLockTTL)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "Could not serialize token issuance", err)
	}
	defer release()

	count, err := e.tokens.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if count >= int64(entitlements.TokenQuota(sub.Plan)) {
		return nil, apperror.New(apperror.KindQuotaExceeded, "API token limit reached!")
	}

	if !entitlements.AllowsTokenType(sub.Plan, in.Type) {
		return nil, apperror.New(apperror.KindPlanTooLow, "You need a premium plan for WordPress automation.")
	}

	token := &models.APIToken{
		UserID:         user.ID,
		SubscriptionID: sub.ID,
		Secret:         uuid.NewString(),
		Type:           in.Type,
		ExpiresAt:      sub.EndDate,
	}

	if in.Type == models.TOKEN_TYPE_WORDPRESS {
		if err := e.verifier.VerifyPlugin(ctx, in.WordpressURL); err != nil {
			return nil, err
		}
		token.WordpressURL = in.WordpressURL
		token.WordpressVerified = true
	}

	if err := e.tokens.Create(token); err != nil {
		return nil, err
	}
	return token, nil
}

// VerificationResult is the outcome of a successful token verification.
type VerificationResult struct {
	UserID       uint
	WordpressURL string
}

// Verify resolves a token secret for an automation caller. Expiry is
// evaluated against the live subscription end date, not the issuance
// snapshot; an expired token stays in place until its owner deletes it.
func (e *Engine) Verify(ctx context.Context, secret, expectedType string) (*VerificationResult, error) {
	_ = ctx
	token, err := e.tokens.GetBySecret(secret)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "Invalid Token! Please Try Again.")
		}
		return nil, err
	}
	if token.Type != expectedType {
		return nil, apperror.New(apperror.KindValidation, fmt.Sprintf("The Api Token does not have Type: %s! Please create a token with this type.", expectedType))
	}

	sub, err := e.subs.GetByID(token.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNoSubscription, "No subscription found for this token.")
		}
		return nil, err
	}
	if sub.EndDate.Before(time.Now()) {
		// The owner is still identified so the caller can prompt a renewal.
		return &VerificationResult{UserID: token.UserID}, apperror.New(apperror.KindSubscriptionExpired, "Subscription has expired. Please renew it.")
	}

	result := &VerificationResult{UserID: token.UserID}
	if token.Type == models.TOKEN_TYPE_WORDPRESS {
		result.WordpressURL = token.WordpressURL
	}
	return result, nil
}

// List returns all tokens owned by the user.
func (e *Engine) List(ctx context.Context, userID uint) ([]models.APIToken, error) {
	_ = ctx
	return e.tokens.ListByUserID(userID)
}

// Delete removes one of the user's tokens. Ownership is enforced by the
// combined lookup; a foreign token id reads as not found.
func (e *Engine) Delete(ctx context.Context, userID, tokenID uint) error {
	_ = ctx
	token, err := e.tokens.GetByIDAndUser(tokenID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.KindNotFound, "Token Not Found!")
		}
		return err
	}
	return e.tokens.Delete(token.ID)
}
