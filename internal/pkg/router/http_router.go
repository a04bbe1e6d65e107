package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ikram-mever-codes/csb-backend/app/controllers"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/auth"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/billing"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/cache"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/invoice"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/lock"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/oauth"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/tokens"
)

const pluginVerifyTimeout = 10 * time.Second

type HttpRouter struct {
}

// InstallRouter builds the service layer, injects it into the controllers
// and registers the browser-facing OAuth routes.
func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init oauth providers
	oauth.Setup()

	factory := repository.GetGlobalFactory()
	locker := lock.NewRedisLocker(cache.GetClient())

	recorder := invoice.NewRecorder(
		factory.GetInvoiceRepository(),
		invoice.HTMLRenderer{},
		invoice.NewStoreFromEnv(),
	)
	gateway := billing.NewHTTPGatewayFromEnv()
	billingService := billing.NewService(
		factory.GetUserRepository(),
		factory.GetSubscriptionRepository(),
		gateway,
		recorder,
		locker,
	)
	reconciler := billing.NewReconciler(factory.GetSubscriptionRepository(), billingService)

	engine := tokens.NewEngine(
		factory.GetUserRepository(),
		factory.GetSubscriptionRepository(),
		factory.GetTokenRepository(),
		tokens.NewWordpressVerifier(pluginVerifyTimeout),
		locker,
	)

	maker := auth.NewTokenMakerFromEnv()
	resolver := auth.NewResolver(
		factory.GetUserRepository(),
		factory.GetProviderAccountRepository(),
		maker,
		auth.NewHTTPIdentityProviderFromEnv(),
	)

	controllers.Setup(maker, resolver, billingService, engine, reconciler, factory.GetWebhookEventRepository())

	// Browser OAuth flow. Lives outside the /api group because providers
	// redirect here directly.
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
