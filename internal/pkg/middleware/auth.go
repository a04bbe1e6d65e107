package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/auth"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/usercontext"
)

// DelegatedSessionCookie is the cookie the hosted-identity frontend sets.
const DelegatedSessionCookie = "__session"

// DelegatedSessionHeader lets API clients pass the delegated session
// explicitly.
const DelegatedSessionHeader = "X-Session-Token"

// extractCredentials pulls both credential schemes off the request. The
// resolver decides priority; this only does transport plumbing.
func extractCredentials(c *fiber.Ctx) auth.Credentials {
	creds := auth.Credentials{
		LocalToken:   c.Cookies(auth.SessionCookieName),
		SessionToken: c.Get(DelegatedSessionHeader),
	}
	if creds.SessionToken == "" {
		creds.SessionToken = c.Cookies(DelegatedSessionCookie)
	}
	if creds.LocalToken == "" {
		if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
			creds.LocalToken = strings.TrimPrefix(h, "Bearer ")
		}
	}
	return creds
}

// WriteSessionCookie sets the local session cookie with a fresh window.
func WriteSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   !env.IsDev(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// ClearSessionCookie expires the local session cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
}

// RequireAuth resolves the request credentials to a principal and stores it
// in Locals. Responds with the error taxonomy JSON body on failure.
func RequireAuth(resolver *auth.Resolver, maker *auth.TokenMaker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := resolver.Resolve(c.UserContext(), extractCredentials(c))
		if err != nil {
			return apperror.Respond(c, err)
		}

		if principal.FreshToken != "" {
			WriteSessionCookie(c, principal.FreshToken, maker.TTL())
		}
		usercontext.SetUser(c, principal.User)
		return c.Next()
	}
}

// RequireAdmin gates a route to admin users. Must run after RequireAuth.
func RequireAdmin(c *fiber.Ctx) error {
	user := usercontext.GetUser(c)
	if user == nil {
		return apperror.Respond(c, apperror.New(apperror.KindSessionExpired, "Session not Found! Please login Again."))
	}
	if !user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "You are not allowed to access this resource",
		})
	}
	return c.Next()
}
