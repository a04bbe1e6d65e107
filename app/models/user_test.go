package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("Ada", "Lovelace", "  Ada@Example.COM ", "s3cret-pass")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, ROLE_USER, u.Role)
	assert.False(t, u.IsVerified)
	assert.Equal(t, SUBSCRIPTION_STATUS_INACTIVE, u.Subscription.Status)
	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong"))

	// Must stay nil, not "": the column carries a unique index and two
	// users saved with empty strings would collide.
	assert.Nil(t, u.PhoneNumber)
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("Ada", "Lovelace", "not-an-email", "s3cret-pass")
	assert.Error(t, err)

	_, err = CreateUser("Ada", "Lovelace", "ada@example.com", "short")
	assert.Error(t, err)

	_, err = CreateUser("Al", "Lovelace", "ada@example.com", "s3cret-pass")
	assert.Error(t, err)
}

func TestFullName(t *testing.T) {
	u := &User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())

	u.LastName = ""
	assert.Equal(t, "Ada", u.FullName())
}

func TestVerificationCodeLifecycle(t *testing.T) {
	u := &User{}

	code, err := u.GenerateVerificationCode()
	require.NoError(t, err)
	require.Len(t, code, 6)
	assert.NotEqual(t, code, u.VerificationCode)
	require.NotNil(t, u.VerificationCodeExpiresAt)

	assert.True(t, u.CheckVerificationCode(code))
	assert.False(t, u.CheckVerificationCode("000000"))

	expired := time.Now().Add(-time.Minute)
	u.VerificationCodeExpiresAt = &expired
	assert.False(t, u.CheckVerificationCode(code))

	u.ClearVerificationCode()
	assert.Empty(t, u.VerificationCode)
	assert.Nil(t, u.VerificationCodeExpiresAt)
	assert.False(t, u.CheckVerificationCode(code))
}

func TestResetTokenLifecycle(t *testing.T) {
	u := &User{}

	require.NoError(t, u.GenerateResetToken())
	require.NotEmpty(t, u.ResetToken)
	require.NotNil(t, u.ResetSentAt)

	assert.True(t, u.IsResetTokenValid(u.ResetToken))
	assert.False(t, u.IsResetTokenValid("deadbeef"))

	stale := time.Now().Add(-2 * time.Hour)
	u.ResetSentAt = &stale
	assert.False(t, u.IsResetTokenValid(u.ResetToken))

	u.ClearResetToken()
	assert.Empty(t, u.ResetToken)
	assert.Nil(t, u.ResetSentAt)
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, (&User{Role: ROLE_USER}).IsAdmin())
	assert.True(t, (&User{Role: ROLE_ADMIN}).IsAdmin())
}
