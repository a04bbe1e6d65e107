package repository

import (
	"github.com/ikram-mever-codes/csb-backend/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByResetToken(token string) (*models.User, error)
	Update(user *models.User) error
	UpdateSummary(userID uint, summary models.EntitlementSummary) error
	Delete(id uint) error
	ListVerified() ([]models.User, error)
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for subscription operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id uint) (*models.Subscription, error)
	GetByUserID(userID uint) (*models.Subscription, error)
	GetByBillingRef(ref string) (*models.Subscription, error)
	Update(sub *models.Subscription) error
	DeleteByUserID(userID uint) error
}

// TokenRepository defines the interface for API token operations
type TokenRepository interface {
	Create(token *models.APIToken) error
	GetBySecret(secret string) (*models.APIToken, error)
	GetByIDAndUser(id, userID uint) (*models.APIToken, error)
	ListByUserID(userID uint) ([]models.APIToken, error)
	CountByUserID(userID uint) (int64, error)
	Delete(id uint) error
	DeleteByUserID(userID uint) error
}

// InvoiceRepository defines the interface for invoice operations
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	ListAll() ([]models.Invoice, error)
	ListByCustomerEmail(email string) ([]models.Invoice, error)
}

// WebhookEventRepository stores provider webhook envelopes with dedup.
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// ProviderAccountRepository links delegated identities to local users.
type ProviderAccountRepository interface {
	GetByProviderUserID(provider, providerUserID string) (*models.ProviderAccount, error)
	Upsert(account *models.ProviderAccount) error
}

// Repositories bundles all repository implementations
type Repositories struct {
	User            UserRepository
	Subscription    SubscriptionRepository
	Token           TokenRepository
	Invoice         InvoiceRepository
	WebhookEvent    WebhookEventRepository
	ProviderAccount ProviderAccountRepository
}

// NewRepositories creates all repositories backed by the given DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Subscription:    NewSubscriptionRepository(db),
		Token:           NewTokenRepository(db),
		Invoice:         NewInvoiceRepository(db),
		WebhookEvent:    NewWebhookEventRepository(db),
		ProviderAccount: NewProviderAccountRepository(db),
	}
}
