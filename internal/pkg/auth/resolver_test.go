package auth

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
)

type fakeUserRepo struct {
	users map[uint]*models.User
}

func (r *fakeUserRepo) Create(user *models.User) error {
	if user.ID == 0 {
		user.ID = uint(len(r.users) + 1)
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByResetToken(string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(user *models.User) error { r.users[user.ID] = user; return nil }

func (r *fakeUserRepo) UpdateSummary(uint, models.EntitlementSummary) error { return nil }

func (r *fakeUserRepo) Delete(id uint) error { delete(r.users, id); return nil }

func (r *fakeUserRepo) ListVerified() ([]models.User, error) { return nil, nil }

func (r *fakeUserRepo) Count() (int64, error) { return int64(len(r.users)), nil }

type fakeAccountRepo struct {
	upserts []models.ProviderAccount
}

func (r *fakeAccountRepo) GetByProviderUserID(provider, providerUserID string) (*models.ProviderAccount, error) {
	for _, a := range r.upserts {
		if a.Provider == provider && a.ProviderUserID == providerUserID {
			copied := a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) Upsert(account *models.ProviderAccount) error {
	r.upserts = append(r.upserts, *account)
	return nil
}

// fakeIdentityProvider returns canned sessions and users and counts calls so
// tests can assert the provider is skipped when a local token wins.
type fakeIdentityProvider struct {
	sessions     map[string]*IdentitySession
	identities   map[string]*IdentityUser
	sessionCalls int
}

func (p *fakeIdentityProvider) ResolveSession(_ context.Context, sessionToken string) (*IdentitySession, error) {
	p.sessionCalls++
	s, ok := p.sessions[sessionToken]
	if !ok {
		return nil, apperror.New(apperror.KindUpstreamAuth, "Could not verify session with identity provider")
	}
	return s, nil
}

func (p *fakeIdentityProvider) FetchUser(_ context.Context, userID string) (*IdentityUser, error) {
	u, ok := p.identities[userID]
	if !ok {
		return nil, apperror.New(apperror.KindUpstreamAuth, "Could not load user from identity provider")
	}
	return u, nil
}

func resolverFixture() (*Resolver, *fakeUserRepo, *fakeAccountRepo, *fakeIdentityProvider, *TokenMaker) {
	users := &fakeUserRepo{users: map[uint]*models.User{
		1: {ID: 1, Email: "ada@example.com", IsVerified: true},
		2: {ID: 2, Email: "charles@example.com", IsVerified: false},
	}}
	accounts := &fakeAccountRepo{}
	provider := &fakeIdentityProvider{
		sessions: map[string]*IdentitySession{
			"sess_abc": {SessionID: "sid_1", UserID: "ext_1"},
		},
		identities: map[string]*IdentityUser{
			"ext_1": {ID: "ext_1", EmailAddresses: []string{"ada@example.com"}},
			"ext_2": {ID: "ext_2", EmailAddresses: []string{"stranger@example.com"}},
		},
	}
	maker := NewTokenMaker("unit-test-secret", time.Hour)
	return NewResolver(users, accounts, maker, provider), users, accounts, provider, maker
}

func TestResolveNoCredentials(t *testing.T) {
	resolver, _, _, _, _ := resolverFixture()

	_, err := resolver.Resolve(context.Background(), Credentials{})
	if !apperror.Is(err, apperror.KindSessionExpired) {
		t.Fatalf("expected session_expired, got %v", err)
	}
}

func TestResolveLocalTokenSlidesWindow(t *testing.T) {
	resolver, _, _, _, maker := resolverFixture()
	token, err := maker.Generate(1)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	principal, err := resolver.Resolve(context.Background(), Credentials{LocalToken: token})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if principal.User.ID != 1 {
		t.Fatalf("expected user 1, got %d", principal.User.ID)
	}
	if principal.FreshToken == "" {
		t.Fatalf("expected a reissued token")
	}
	claims, err := maker.Parse(principal.FreshToken)
	if err != nil || claims.UserID != 1 {
		t.Fatalf("reissued token does not parse: %v", err)
	}
}

func TestResolveLocalTokenOutranksDelegatedSession(t *testing.T) {
	resolver, _, _, provider, maker := resolverFixture()
	token, err := maker.Generate(1)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = resolver.Resolve(context.Background(), Credentials{
		LocalToken:   token,
		SessionToken: "sess_abc",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if provider.sessionCalls != 0 {
		t.Fatalf("identity provider must not be consulted when a local token is present")
	}
}

func TestResolveInvalidLocalTokenDoesNotFallThrough(t *testing.T) {
	resolver, _, _, provider, _ := resolverFixture()

	_, err := resolver.Resolve(context.Background(), Credentials{
		LocalToken:   "garbage",
		SessionToken: "sess_abc",
	})
	if !apperror.Is(err, apperror.KindInvalidToken) {
		t.Fatalf("expected invalid_token, got %v", err)
	}
	if provider.sessionCalls != 0 {
		t.Fatalf("a present-but-invalid local token must not fall through to the delegated scheme")
	}
}

func TestResolveUnverifiedUser(t *testing.T) {
	resolver, _, _, _, maker := resolverFixture()
	token, err := maker.Generate(2)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = resolver.Resolve(context.Background(), Credentials{LocalToken: token})
	if !apperror.Is(err, apperror.KindInvalidToken) {
		t.Fatalf("expected invalid_token for unverified user, got %v", err)
	}
}

func TestResolveDelegatedSessionMintsLocalToken(t *testing.T) {
	resolver, _, accounts, _, maker := resolverFixture()

	principal, err := resolver.Resolve(context.Background(), Credentials{SessionToken: "sess_abc"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if principal.User.ID != 1 {
		t.Fatalf("expected user 1, got %d", principal.User.ID)
	}
	claims, err := maker.Parse(principal.FreshToken)
	if err != nil || claims.UserID != 1 {
		t.Fatalf("minted local token does not parse: %v", err)
	}

	if len(accounts.upserts) != 1 {
		t.Fatalf("expected one provider account upsert, got %d", len(accounts.upserts))
	}
	link := accounts.upserts[0]
	if link.Provider != DelegatedProviderName || link.ProviderUserID != "ext_1" || link.UserID != 1 {
		t.Fatalf("unexpected account link: %+v", link)
	}
}

func TestResolveDelegatedSessionProvisionsUnknownEmail(t *testing.T) {
	resolver, users, accounts, provider, maker := resolverFixture()
	provider.sessions["sess_new"] = &IdentitySession{SessionID: "sid_2", UserID: "ext_2"}
	provider.identities["ext_2"].FirstName = "Grace"
	provider.identities["ext_2"].LastName = "Hopper"

	principal, err := resolver.Resolve(context.Background(), Credentials{SessionToken: "sess_new"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	created, err := users.GetByEmail("stranger@example.com")
	if err != nil {
		t.Fatalf("provisioned user not persisted: %v", err)
	}
	if created.ID != principal.User.ID {
		t.Fatalf("principal user %d does not match persisted user %d", principal.User.ID, created.ID)
	}
	if created.FirstName != "Grace" || created.LastName != "Hopper" {
		t.Fatalf("unexpected provisioned names: %q %q", created.FirstName, created.LastName)
	}
	// Provider-asserted emails count as verified.
	if !created.IsVerified {
		t.Fatalf("provisioned user must be verified")
	}
	if created.Password == "" {
		t.Fatalf("provisioned user must carry a placeholder password hash")
	}

	claims, err := maker.Parse(principal.FreshToken)
	if err != nil || claims.UserID != created.ID {
		t.Fatalf("minted local token does not parse for provisioned user: %v", err)
	}
	if len(accounts.upserts) != 1 || accounts.upserts[0].UserID != created.ID {
		t.Fatalf("expected account link for provisioned user, got %+v", accounts.upserts)
	}
}

func TestResolveDelegatedSessionRejected(t *testing.T) {
	resolver, _, _, _, _ := resolverFixture()

	_, err := resolver.Resolve(context.Background(), Credentials{SessionToken: "sess_bogus"})
	if !apperror.Is(err, apperror.KindUpstreamAuth) {
		t.Fatalf("expected upstream_auth, got %v", err)
	}
}
