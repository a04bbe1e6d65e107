package repository

import (
	"github.com/ikram-mever-codes/csb-backend/app/models"
	"gorm.io/gorm"
)

// tokenRepository implements the TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new API token repository instance
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *models.APIToken) error {
	return r.db.Create(token).Error
}

func (r *tokenRepository) GetBySecret(secret string) (*models.APIToken, error) {
	var token models.APIToken
	err := r.db.Where("secret = ?", secret).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) GetByIDAndUser(id, userID uint) (*models.APIToken, error) {
	var token models.APIToken
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) ListByUserID(userID uint) ([]models.APIToken, error) {
	var tokens []models.APIToken
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}

func (r *tokenRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.APIToken{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *tokenRepository) Delete(id uint) error {
	return r.db.Delete(&models.APIToken{}, id).Error
}

func (r *tokenRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.APIToken{}).Error
}
