package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/middleware"
)

// HandleOAuthBegin starts the provider flow.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow, links or creates the
// local account and opens a session. Provider-asserted emails count as
// verified; no code round trip is needed.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindUpstreamAuth, "OAuth failed", err))
	}

	factory := repository.GetGlobalFactory()
	users := factory.GetUserRepository()
	accounts := factory.GetProviderAccountRepository()

	var appUser *models.User
	if account, err := accounts.GetByProviderUserID(u.Provider, u.UserID); err == nil {
		appUser, err = users.GetByID(account.UserID)
		if err != nil {
			return apperror.Respond(c, err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Respond(c, err)
	}

	if appUser == nil && u.Email != "" {
		existing, err := users.GetByEmail(strings.ToLower(u.Email))
		if err == nil {
			appUser = existing
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, err)
		}
	}

	if appUser == nil {
		email := u.Email
		if email == "" {
			// The unique index needs a non-empty email even for providers
			// that withhold it.
			email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
		}
		placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
		firstName, lastName := splitDisplayName(firstNonEmpty(u.Name, u.NickName, "User"))
		appUser, err = models.CreateUser(firstName, lastName, email, placeholder)
		if err != nil {
			return apperror.Respond(c, err)
		}
		appUser.AvatarURL = u.AvatarURL
		appUser.IsVerified = true
		if err := users.Create(appUser); err != nil {
			return apperror.Respond(c, err)
		}
	} else if !appUser.IsVerified {
		appUser.IsVerified = true
		if err := users.Update(appUser); err != nil {
			return apperror.Respond(c, err)
		}
	}

	var exp *time.Time
	if !u.ExpiresAt.IsZero() {
		t := u.ExpiresAt
		exp = &t
	}
	if err := accounts.Upsert(&models.ProviderAccount{
		UserID:         appUser.ID,
		Provider:       u.Provider,
		ProviderUserID: u.UserID,
		AccessToken:    u.AccessToken,
		RefreshToken:   u.RefreshToken,
		ExpiresAt:      exp,
	}); err != nil {
		return apperror.Respond(c, err)
	}

	token, err := tokenMaker.Generate(appUser.ID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	middleware.WriteSessionCookie(c, token, tokenMaker.TTL())

	now := time.Now()
	appUser.LastLoginAt = &now
	_ = users.Update(appUser)

	target := strings.TrimRight(env.GetEnv("FRONTEND_URL", "/"), "/")
	if target == "" {
		target = "/"
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

// HandleOAuthLogout ends the provider session and clears the local cookie.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	middleware.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "User Logged Out!"})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitDisplayName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "User", "Account"
	}
	if len(parts) == 1 {
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}
