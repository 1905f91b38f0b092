package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/sitegrid/portal/internal/api/handler"
	customMiddleware "github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/billing/moneybird"
	"github.com/sitegrid/portal/internal/billing/stripe"
	"github.com/sitegrid/portal/internal/config"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/repository/postgres"
	"github.com/sitegrid/portal/internal/repository/redis"
	"github.com/sitegrid/portal/internal/security"
	"github.com/sitegrid/portal/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	encryptor, err := security.NewEncryptorFromSecret(cfg.Auth.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid encryption key")
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	websiteRepo := postgres.NewWebsiteRepository(db)
	pageRepo := postgres.NewPageRepository(db)
	schemaRepo := postgres.NewSchemaRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	credRepo := postgres.NewMoneybirdCredentialRepository(db)

	// Initialize rate limiter and OAuth state store
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	oauthStates := redis.NewOAuthStateStore(redisClient)

	// Billing clients
	stripeClient := stripe.NewClient(cfg.Stripe.APIKey, cfg.Stripe.BaseURL)
	moneybirdOAuth := moneybird.NewOAuth(
		cfg.Moneybird.ClientID,
		cfg.Moneybird.ClientSecret,
		cfg.Moneybird.RedirectURL,
		cfg.Moneybird.AuthBaseURL,
	)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	authzService := service.NewAuthzService(userRepo)
	tenantService := service.NewTenantService(tenantRepo, auditRepo, stripeClient)
	websiteService := service.NewWebsiteService(websiteRepo)
	pageService := service.NewPageService(pageRepo)
	schemaService := service.NewSchemaService(schemaRepo, pageRepo)
	subscriptionService := service.NewSubscriptionService(
		tenantRepo,
		subscriptionRepo,
		assignmentRepo,
		auditRepo,
		stripeClient,
		cfg.Stripe.DaysUntilDue,
	)
	moneybirdService := service.NewMoneybirdService(moneybirdOAuth, credRepo, tenantRepo, oauthStates, encryptor)

	// The Moneybird client pulls tokens through the service
	moneybirdClient := moneybird.NewClient(cfg.Moneybird.AdministrationID, cfg.Moneybird.BaseURL, moneybirdService)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, authzService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	websiteHandler := handler.NewWebsiteHandler(websiteService)
	pageHandler := handler.NewPageHandler(pageService)
	schemaHandler := handler.NewSchemaHandler(schemaService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	webhookHandler := handler.NewWebhookHandler(subscriptionService, cfg.Stripe.WebhookSecret)
	moneybirdHandler := handler.NewMoneybirdHandler(moneybirdService, moneybirdClient)

	// Middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	roleMiddleware := customMiddleware.NewRoleMiddleware(authzService)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Webhooks (signature-authenticated)
		r.Post("/webhooks/stripe", webhookHandler.HandleStripe)

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// OAuth callback arrives without a bearer token; the state
		// nonce ties it back to the initiating user.
		r.Get("/integrations/moneybird/callback", moneybirdHandler.Callback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/auth/me", authHandler.Me)

			// Role management
			r.Route("/users/{userID}/roles", func(r chi.Router) {
				r.Use(roleMiddleware.Require(domain.RoleAdmin))

				r.Get("/", authHandler.ListRoles)
				r.Post("/", authHandler.AssignRole)
				r.Delete("/{role}", authHandler.RevokeRole)
			})

			// Moneybird integration
			r.Route("/integrations/moneybird", func(r chi.Router) {
				r.Use(roleMiddleware.Require(domain.RoleBilling))

				r.Get("/connect", moneybirdHandler.Connect)
				r.Get("/status", moneybirdHandler.Status)
			})

			// Billing reconciliation
			r.With(roleMiddleware.Require(domain.RoleBilling)).
				Post("/billing/reconcile", subscriptionHandler.Reconcile)

			// Tenant routes
			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", tenantHandler.List)
				r.With(roleMiddleware.Require(domain.RoleAdmin)).Post("/", tenantHandler.Create)

				r.Route("/{tenantID}", func(r chi.Router) {
					r.Use(customMiddleware.TenantContext)

					r.Get("/", tenantHandler.Get)
					r.With(roleMiddleware.Require(domain.RoleAdmin)).Patch("/", tenantHandler.Update)
					r.With(roleMiddleware.Require(domain.RoleAdmin)).Delete("/", tenantHandler.Delete)
					r.Get("/audit", tenantHandler.AuditLog)

					// Billing
					r.Group(func(r chi.Router) {
						r.Use(roleMiddleware.Require(domain.RoleBilling))

						r.Post("/billing/customer", tenantHandler.EnsureBillingCustomer)
						r.Get("/subscriptions", subscriptionHandler.List)
						r.Post("/subscriptions", subscriptionHandler.Assign)
						r.Post("/moneybird/sync", moneybirdHandler.SyncContact)
					})

					// Website routes
					r.Route("/websites", func(r chi.Router) {
						r.Get("/", websiteHandler.List)
						r.With(roleMiddleware.Require(domain.RoleEditor)).Post("/", websiteHandler.Create)

						r.Route("/{websiteID}", func(r chi.Router) {
							r.Use(customMiddleware.WebsiteContext)

							r.Get("/", websiteHandler.Get)
							r.With(roleMiddleware.Require(domain.RoleEditor)).Patch("/", websiteHandler.Update)
							r.With(roleMiddleware.Require(domain.RoleEditor)).Delete("/", websiteHandler.Delete)

							// Page routes
							r.Route("/pages", func(r chi.Router) {
								r.Get("/", pageHandler.List)
								r.With(roleMiddleware.Require(domain.RoleEditor)).Post("/", pageHandler.Create)

								r.Route("/{pageID}", func(r chi.Router) {
									r.Use(customMiddleware.PageContext)

									r.Get("/", pageHandler.Get)
									r.With(roleMiddleware.Require(domain.RoleEditor)).Patch("/", pageHandler.Update)
									r.With(roleMiddleware.Require(domain.RoleEditor)).Put("/status", pageHandler.SetStatus)
									r.With(roleMiddleware.Require(domain.RoleEditor)).Delete("/", pageHandler.Delete)

									// Content-model routes
									r.Route("/schema", func(r chi.Router) {
										r.Get("/export", schemaHandler.Export)
										r.With(roleMiddleware.Require(domain.RoleEditor)).Post("/import", schemaHandler.Import)

										r.Route("/sections", func(r chi.Router) {
											r.Get("/", schemaHandler.ListSections)
											r.With(roleMiddleware.Require(domain.RoleEditor)).Post("/", schemaHandler.CreateSection)

											r.Route("/{sectionID}", func(r chi.Router) {
												r.With(roleMiddleware.Require(domain.RoleEditor)).Patch("/", schemaHandler.UpdateSection)
												r.With(roleMiddleware.Require(domain.RoleEditor)).Delete("/", schemaHandler.DeleteSection)
												r.With(roleMiddleware.Require(domain.RoleEditor)).Post("/fields", schemaHandler.CreateField)
												r.With(roleMiddleware.Require(domain.RoleEditor)).Put("/fields/reorder", schemaHandler.ReorderFields)
												r.With(roleMiddleware.Require(domain.RoleEditor)).Patch("/fields/{fieldID}", schemaHandler.UpdateField)
												r.With(roleMiddleware.Require(domain.RoleEditor)).Delete("/fields/{fieldID}", schemaHandler.DeleteField)
											})
										})
									})
								})
							})
						})
					})
				})
			})
		})
	})

	return r
}
