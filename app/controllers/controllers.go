package controllers

import (
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/auth"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/billing"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/tokens"
)

// Shared service instances used by the controllers. Wired once at startup
// by the router setup; repositories come from the global factory.
var (
	tokenMaker     *auth.TokenMaker
	authResolver   *auth.Resolver
	billingService *billing.Service
	tokenEngine    *tokens.Engine
	reconciler     *billing.Reconciler
	webhookEvents  repository.WebhookEventRepository
)

// Setup injects the service layer into the controller package.
func Setup(maker *auth.TokenMaker, resolver *auth.Resolver, svc *billing.Service, engine *tokens.Engine, rec *billing.Reconciler, events repository.WebhookEventRepository) {
	tokenMaker = maker
	authResolver = resolver
	billingService = svc
	tokenEngine = engine
	reconciler = rec
	webhookEvents = events
}

// TokenMaker exposes the configured maker for route wiring.
func TokenMaker() *auth.TokenMaker {
	return tokenMaker
}

// AuthResolver exposes the configured resolver for route wiring.
func AuthResolver() *auth.Resolver {
	return authResolver
}
