package models

import "time"

const (
	TOKEN_TYPE_FACEBOOK  = "facebook"
	TOKEN_TYPE_WORDPRESS = "wordpress"
)

// APIToken is a derived credential scoped to one (user, subscription) pair.
// ExpiresAt is a snapshot of the subscription end date at issuance time and
// is never refreshed on renewal; verification re-checks the live
// subscription instead of trusting this snapshot.
type APIToken struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"userId"`
	SubscriptionID     uint      `gorm:"not null;index" json:"subscriptionId"`
	Secret             string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"apiToken"`
	Type               string    `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=facebook wordpress"`
	WordpressURL       string    `gorm:"type:varchar(255);default:null" json:"wordpressUrl,omitempty"`
	WordpressVerified  bool      `gorm:"default:false" json:"wordpressVerified"`
	ExpiresAt          time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
