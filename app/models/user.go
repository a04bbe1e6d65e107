package models

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

const (
	SUBSCRIPTION_STATUS_ACTIVE   = "active"
	SUBSCRIPTION_STATUS_INACTIVE = "inactive"
)

// EntitlementSummary is a denormalized projection of the user's Subscription
// embedded into the user row so entitlement checks need no join. It is only
// ever written through the billing service's projection path.
type EntitlementSummary struct {
	SubscriptionID *uint      `gorm:"column:subscription_id;index" json:"id,omitempty"`
	Plan           string     `gorm:"column:subscription_plan;type:varchar(20)" json:"plan,omitempty"`
	Status         string     `gorm:"column:subscription_status;type:varchar(20);default:'inactive'" json:"status"`
	ExpiresAt      *time.Time `gorm:"column:subscription_expires_at" json:"expiresAt,omitempty"`
}

type User struct {
	ID                        uint               `gorm:"primaryKey" json:"id"`
	FirstName                 string             `gorm:"type:varchar(25);not null" json:"firstName" validate:"required,min=3,max=25"`
	LastName                  string             `gorm:"type:varchar(30);not null" json:"lastName" validate:"required,max=30"`
	// Pointer so absent phone numbers persist as NULL. The unique index
	// permits any number of NULLs but a full-row Save of an empty string
	// would collide across users.
	PhoneNumber               *string            `gorm:"type:varchar(20);uniqueIndex;default:null" json:"phoneNumber,omitempty"`
	AvatarURL                 string             `gorm:"type:varchar(255);default:null" json:"avatar,omitempty" validate:"max=255"`
	Email                     string             `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin;not null" json:"email" validate:"required,email,min=5,max=200"`
	Password                  string             `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                      string             `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	IsVerified                bool               `gorm:"default:false" json:"isVerified"`
	VerificationCode          string             `gorm:"type:text" json:"-"`
	VerificationCodeExpiresAt *time.Time         `gorm:"type:timestamp;default:null" json:"-"`
	ResetToken                string             `gorm:"type:varchar(100);default:null;index" json:"-"`
	ResetSentAt               *time.Time         `gorm:"type:timestamp;default:null" json:"-"`
	Subscription              EntitlementSummary `gorm:"embedded" json:"subscription"`
	LastLoginAt               *time.Time         `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt                 time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt                 gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(firstName, lastName, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  pw,
		Role:      ROLE_USER,
		Subscription: EntitlementSummary{
			Status: SUBSCRIPTION_STATUS_INACTIVE,
		},
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// FullName returns the customer-facing display name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// GenerateVerificationCode creates a 6-digit code, stores its bcrypt hash
// with a 30 minute expiry and returns the plaintext code for delivery.
func (u *User) GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	code := n.Add(n, big.NewInt(100000)).String()

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u.VerificationCode = string(hashed)
	expires := time.Now().Add(30 * time.Minute)
	u.VerificationCodeExpiresAt = &expires
	return code, nil
}

// CheckVerificationCode validates a submitted code against the stored hash
// and its expiry window.
func (u *User) CheckVerificationCode(code string) bool {
	if u.VerificationCode == "" || u.VerificationCodeExpiresAt == nil {
		return false
	}
	if time.Now().After(*u.VerificationCodeExpiresAt) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.VerificationCode), []byte(code)) == nil
}

// ClearVerificationCode removes pending verification material after use.
func (u *User) ClearVerificationCode() {
	u.VerificationCode = ""
	u.VerificationCodeExpiresAt = nil
}

// GenerateResetToken creates a random token and sets ResetSentAt.
func (u *User) GenerateResetToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ResetToken = hex.EncodeToString(b)
	now := time.Now()
	u.ResetSentAt = &now
	return nil
}

// IsResetTokenValid checks the reset token and its 1 hour expiry window.
func (u *User) IsResetTokenValid(token string) bool {
	if u.ResetToken == "" || u.ResetSentAt == nil {
		return false
	}
	if u.ResetToken != token {
		return false
	}
	return time.Since(*u.ResetSentAt) < time.Hour
}

// ClearResetToken removes pending reset material after use.
func (u *User) ClearResetToken() {
	u.ResetToken = ""
	u.ResetSentAt = nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}
