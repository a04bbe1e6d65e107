package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ikram-mever-codes/csb-backend/app/controllers"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "CSB backend is running",
		})
	})

	v1 := api.Group("/v1")
	requireAuth := middleware.RequireAuth(controllers.AuthResolver(), controllers.TokenMaker())

	users := v1.Group("/users")
	users.Post("/sign-up", controllers.HandleSignUp)
	users.Put("/resend-code", controllers.HandleResendCode)
	users.Post("/verify", controllers.HandleVerifyAccount)
	users.Post("/login", controllers.HandleLogin)
	users.Put("/forget-password", controllers.HandleForgotPassword)
	users.Put("/reset-password", controllers.HandleResetPassword)
	users.Get("/logout", requireAuth, controllers.HandleLogout)
	users.Get("/refresh", requireAuth, controllers.HandleRefresh)
	users.Put("/edit-profile", requireAuth, controllers.HandleEditProfile)
	users.Put("/change-password", requireAuth, controllers.HandleChangePassword)

	subscriptions := v1.Group("/subscriptions")
	subscriptions.Post("/buy", requireAuth, controllers.HandleBuySubscription)
	subscriptions.Get("/invoices/all", requireAuth, middleware.RequireAdmin, controllers.HandleGetAllInvoices)

	tokens := v1.Group("/tokens")
	// Public: the secret itself is the credential for automation callers.
	tokens.Get("/verify-token/:apiToken/:type", controllers.HandleVerifyToken)
	tokens.Post("/create", requireAuth, controllers.HandleCreateToken)
	tokens.Get("/all", requireAuth, controllers.HandleGetAllTokens)
	tokens.Delete("/:tokenId", requireAuth, controllers.HandleDeleteToken)

	admin := v1.Group("/admin", requireAuth, middleware.RequireAdmin)
	admin.Get("/users", controllers.HandleGetAllUsers)
	admin.Get("/user-details/:id", controllers.HandleGetSingleUserDetails)
	admin.Delete("/user/:id", controllers.HandleDeleteUserAccount)
	admin.Put("/user/sub-type", controllers.HandleChangeMembershipType)
	admin.Get("/user/count", controllers.HandleGetUsersCount)
	admin.Post("/user/:id/reproject", controllers.HandleReprojectUser)

	webhooks := v1.Group("/webhooks")
	webhooks.Post("/payments", controllers.HandlePaymentWebhook)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
