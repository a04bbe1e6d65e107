package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
)

// DelegatedProviderName labels identity-provider accounts in the account
// link table.
const DelegatedProviderName = "identity"

// Credentials are the raw request credentials, extracted by the transport
// layer before resolution.
type Credentials struct {
	// LocalToken is the locally-issued signed session token.
	LocalToken string
	// SessionToken is the delegated external session identifier.
	SessionToken string
}

// Principal is a resolved, authenticated user. FreshToken is non-empty when
// the transport should rewrite the session cookie: every local-token hit
// slides the expiry window, and a delegated resolution mints a local token
// so the next request can skip the provider round trip.
type Principal struct {
	User       *models.User
	FreshToken string
}

// scheme resolves one credential kind. present is false when the request
// carries no credential for this scheme, letting the resolver fall through
// to the next one.
type scheme interface {
	resolve(ctx context.Context, creds Credentials) (principal *Principal, present bool, err error)
}

// Resolver tries each credential scheme in fixed priority order and
// short-circuits on the first match. Local tokens outrank delegated
// sessions.
type Resolver struct {
	schemes []scheme
}

// NewResolver wires the two supported schemes.
func NewResolver(users repository.UserRepository, accounts repository.ProviderAccountRepository, maker *TokenMaker, provider IdentityProvider) *Resolver {
	return &Resolver{
		schemes: []scheme{
			&localTokenScheme{users: users, maker: maker},
			&delegatedScheme{users: users, accounts: accounts, maker: maker, provider: provider},
		},
	}
}

// Resolve maps request credentials to a principal. With no usable
// credential present the caller gets a session-expired error, never a
// scheme-specific one.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*Principal, error) {
	for _, s := range r.schemes {
		principal, present, err := s.resolve(ctx, creds)
		if !present {
			continue
		}
		if err != nil {
			return nil, err
		}
		return principal, nil
	}
	return nil, apperror.New(apperror.KindSessionExpired, "Session Expired! Please Login Again.")
}

// localTokenScheme validates the locally-issued signed token and reissues
// it with a fresh window.
type localTokenScheme struct {
	users repository.UserRepository
	maker *TokenMaker
}

func (s *localTokenScheme) resolve(ctx context.Context, creds Credentials) (*Principal, bool, error) {
	_ = ctx
	if creds.LocalToken == "" {
		return nil, false, nil
	}

	claims, err := s.maker.Parse(creds.LocalToken)
	if err != nil {
		return nil, true, err
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, true, apperror.New(apperror.KindInvalidToken, "Invalid Token! Please Login Again.")
		}
		return nil, true, err
	}
	// Same code for unverified accounts so the response does not leak
	// verification state.
	if !user.IsVerified {
		return nil, true, apperror.New(apperror.KindInvalidToken, "Invalid Token! Please Login Again.")
	}

	fresh, err := s.maker.Generate(user.ID)
	if err != nil {
		return nil, true, err
	}
	return &Principal{User: user, FreshToken: fresh}, true, nil
}

// delegatedScheme resolves an external session at the identity provider and
// maps the provider identity to a local user by primary email.
type delegatedScheme struct {
	users    repository.UserRepository
	accounts repository.ProviderAccountRepository
	maker    *TokenMaker
	provider IdentityProvider
}

func (s *delegatedScheme) resolve(ctx context.Context, creds Credentials) (*Principal, bool, error) {
	if creds.SessionToken == "" {
		return nil, false, nil
	}

	session, err := s.provider.ResolveSession(ctx, creds.SessionToken)
	if err != nil {
		return nil, true, err
	}

	identity, err := s.provider.FetchUser(ctx, session.UserID)
	if err != nil {
		return nil, true, err
	}
	email := identity.PrimaryEmail()
	if email == "" {
		return nil, true, apperror.New(apperror.KindUpstreamAuth, "Identity provider returned no email address")
	}

	user, err := s.users.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First sign-in through the provider: provision a local account.
		// The provider already verified the email, so no code round trip.
		user, err = s.provisionUser(identity, email)
	}
	if err != nil {
		return nil, true, err
	}

	link := &models.ProviderAccount{
		Provider:       DelegatedProviderName,
		ProviderUserID: identity.ID,
		UserID:         user.ID,
	}
	if err := s.accounts.Upsert(link); err != nil {
		return nil, true, err
	}

	fresh, err := s.maker.Generate(user.ID)
	if err != nil {
		return nil, true, err
	}
	return &Principal{User: user, FreshToken: fresh}, true, nil
}

// provisionUser creates a verified local account for a provider identity
// with no matching email. The password is an unguessable placeholder; a
// provisioned user signs in through the provider, not with credentials.
func (s *delegatedScheme) provisionUser(identity *IdentityUser, email string) (*models.User, error) {
	firstName := identity.FirstName
	if firstName == "" {
		firstName = "User"
	}
	lastName := identity.LastName
	if lastName == "" {
		lastName = "Account"
	}

	placeholder := fmt.Sprintf("delegated_%d", time.Now().UnixNano())
	user, err := models.CreateUser(firstName, lastName, email, placeholder)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = identity.AvatarURL
	user.IsVerified = true
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}
