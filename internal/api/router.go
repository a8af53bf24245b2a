package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pricely/backend/internal/api/handler"
	customMiddleware "github.com/pricely/backend/internal/api/middleware"
	"github.com/pricely/backend/internal/config"
	"github.com/pricely/backend/internal/llm"
	"github.com/pricely/backend/internal/llm/gemini"
	"github.com/pricely/backend/internal/llm/groq"
	"github.com/pricely/backend/internal/llm/ollama"
	"github.com/pricely/backend/internal/llm/openai"
	"github.com/pricely/backend/internal/repository/postgres"
	"github.com/pricely/backend/internal/repository/redis"
	"github.com/pricely/backend/internal/security"
	"github.com/pricely/backend/internal/service"
	"github.com/rs/zerolog/log"
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
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	convRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Initialize rate limiter and listing cache
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Chat.RateLimit.Requests,
		cfg.Chat.RateLimit.Burst,
		cfg.Chat.RateLimit.Window,
	)
	listingCache := redis.NewListingCache(redisClient)

	llmRouter := buildLLMRouter(cfg)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	intentService := service.NewIntentService(llmRouter, cfg.LLM.Timeout)
	resolverService := service.NewResolverService(catalogRepo, cfg.Chat.ProductLimit)
	composerService := service.NewComposerService(llmRouter, cfg.Chat.HistoryLimit, cfg.LLM.Timeout)
	chatService := service.NewChatService(
		intentService,
		resolverService,
		composerService,
		convRepo,
		messageRepo,
		cfg.Chat.HistoryLimit,
		cfg.Chat.TitleMaxChars,
	)
	convService := service.NewConversationService(convRepo, messageRepo)
	productService := service.NewProductService(catalogRepo, listingCache, cfg.Chat.ProductLimit)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	convHandler := handler.NewConversationHandler(convService)
	productHandler := handler.NewProductHandler(productService)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db, redisClient))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Chat and catalog routes (public, rate limited by client address)
		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware.Limit)

			r.Post("/chat", chatHandler.Send)
			r.Post("/chat/stream", chatHandler.SendStream)

			r.Route("/products", func(r chi.Router) {
				r.Get("/search", productHandler.Search)
				r.Get("/cheapest", productHandler.Cheapest)
				r.Get("/{productID}", productHandler.Get)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/me", authHandler.Me)
			r.Get("/llm-providers", handler.ListLLMProviders(llmRouter))
			r.Post("/cache/flush", handler.FlushListings(listingCache))

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", convHandler.List)
				r.Post("/", convHandler.Create)

				r.Route("/{conversationID}", func(r chi.Router) {
					r.Get("/", convHandler.Get)
					r.Patch("/", convHandler.Update)
					r.Delete("/", convHandler.Delete)
					r.Get("/messages", convHandler.Messages)
				})
			})
		})
	})

	return r
}

// buildLLMRouter registers every provider that has credentials
func buildLLMRouter(cfg *config.Config) *llm.Router {
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Groq.APIKey != "" {
		llmRouter.RegisterProvider(groq.NewProvider(cfg.LLM.Groq.APIKey, cfg.LLM.Groq.Model))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	}
	if cfg.LLM.Ollama.Host != "" {
		log.Info().Str("host", cfg.LLM.Ollama.Host).Msg("Registering Ollama provider")
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}

	if len(llmRouter.ListProviders()) == 0 {
		log.Warn().Msg("no LLM provider configured, chat will use heuristic fallbacks")
	}

	return llmRouter
}
