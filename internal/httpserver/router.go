package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/YongHui-X/ecoplate/internal/config"
	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/security"
	"github.com/YongHui-X/ecoplate/internal/service"
	"github.com/YongHui-X/ecoplate/internal/ws"

	_ "github.com/YongHui-X/ecoplate/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware. The hub and dispatcher are owned by the caller and shared with
// the live-channel handler so REST sends can push to open sockets.
func NewRouter(
	cfg *config.Config,
	repos *domain.Repositories,
	hub *ws.Hub,
	dispatcher *ws.Dispatcher,
	tokenSvc *security.TokenService,
	passwordHasher *security.PasswordHasher,
) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(repos.Users, tokenSvc, passwordHasher)
	userSvc := service.NewUserService(repos.Users)
	productSvc := service.NewProductService(repos.Products, repos.Points)
	listingSvc := service.NewListingService(repos.Listings, repos.Points)
	convSvc := service.NewConversationService(repos.Conversations, repos.Messages, repos.Listings, repos.Users)
	msgSvc := service.NewMessageService(convSvc, repos.Conversations, repos.Messages, repos.Listings, repos.Users, dispatcher)
	rewardSvc := service.NewRewardService(repos.Points, repos.Rewards)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "EcoPlate API",
			"version": "1.0.0",
			"docs":    "/docs",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, repos.Users))

			r.Get("/auth/me", handleMe())

			r.Route("/users", func(r chi.Router) {
				r.Patch("/me", handleUpdateProfile(userSvc))
				r.Get("/{userID}", handleGetUserProfile(userSvc))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", handleListProducts(productSvc))
				r.Post("/", handleCreateProduct(productSvc))
				r.Patch("/{productID}", handleUpdateProduct(productSvc))
				r.Delete("/{productID}", handleDeleteProduct(productSvc))
			})

			r.Route("/listings", func(r chi.Router) {
				r.Get("/", handleListListings(listingSvc))
				r.Post("/", handleCreateListing(listingSvc))
				r.Get("/{listingID}", handleGetListing(listingSvc))
				r.Patch("/{listingID}", handleUpdateListing(listingSvc))
				r.Delete("/{listingID}", handleDeleteListing(listingSvc))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", handleListConversations(convSvc))
				r.Get("/{conversationID}", handleGetConversation(convSvc))
				r.Get("/listing/{listingID}", handleConversationForListing(convSvc))
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", handleSendMessage(msgSvc))
				r.Patch("/read", handleMarkRead(msgSvc))
				r.Get("/unread-count", handleUnreadCount(msgSvc))
			})

			r.Get("/points", handleGetPoints(rewardSvc))
			r.Route("/rewards", func(r chi.Router) {
				r.Get("/", handleListRewards(rewardSvc))
				r.Post("/{rewardID}/redeem", handleRedeemReward(rewardSvc))
			})

			r.Mount("/uploads", UploadRoutes(cfg))
		})
	})

	// Live channel endpoint
	r.Get("/ws", ws.MakeHandler(hub, dispatcher, tokenSvc, repos.Users, cfg.CORSOrigins))

	return r
}
