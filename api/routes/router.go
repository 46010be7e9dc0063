package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dungdata/dungdata-backend/api/controllers"
	"github.com/dungdata/dungdata-backend/api/middleware"
	"github.com/dungdata/dungdata-backend/internal/auth"
	"github.com/dungdata/dungdata-backend/internal/cart"
	"github.com/dungdata/dungdata-backend/internal/categories"
	checkoutsvc "github.com/dungdata/dungdata-backend/internal/checkout"
	"github.com/dungdata/dungdata-backend/internal/media"
	"github.com/dungdata/dungdata-backend/internal/messages"
	"github.com/dungdata/dungdata-backend/internal/orders"
	"github.com/dungdata/dungdata-backend/internal/posts"
	"github.com/dungdata/dungdata-backend/internal/settings"
	"github.com/dungdata/dungdata-backend/internal/stats"
	"github.com/dungdata/dungdata-backend/internal/users"
	"github.com/dungdata/dungdata-backend/pkg/auth/session"
	"github.com/dungdata/dungdata-backend/pkg/config"
	"github.com/dungdata/dungdata-backend/pkg/enums"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/metrics"
	"github.com/dungdata/dungdata-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on. Optional
// fields (Redis, Metrics, health pingers) may be nil.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	Session     session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	HealthDeps  map[string]controllers.Pinger

	AuthService     auth.Service
	PostService     posts.Service
	CategoryService categories.Service
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
	OrderService    orders.Service
	MessageService  messages.Service
	MediaService    media.Service
	UserService     users.Service
	SettingService  settings.Service
	StatsService    stats.Service
}

// NewRouter assembles the public storefront API and the admin CMS API.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.HealthDeps))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/posts", controllers.ListPosts(p.PostService, logg))
		r.Get("/posts/{slug}", controllers.GetPostBySlug(p.PostService, logg))
		r.Get("/categories", controllers.ListCategories(p.CategoryService, logg))
		r.Post("/contact", controllers.CreateContactMessage(p.MessageService, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
				Post("/login", controllers.AuthLogin(p.AuthService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
				Post("/register", controllers.AuthRegister(p.AuthService, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
			r.With(middleware.Auth(cfg.JWT, p.Session, logg)).
				Post("/logout", controllers.AuthLogout(p.AuthService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Session, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(p.CartService, logg))
				r.Post("/add", controllers.AddCartItem(p.CartService, logg))
				r.Patch("/items/{itemID}", controllers.UpdateCartItem(p.CartService, logg))
				r.Delete("/items/{itemID}", controllers.RemoveCartItem(p.CartService, logg))
			})
			r.Post("/checkout/confirm", controllers.ConfirmCheckout(p.CheckoutService, logg))
			r.Get("/orders", controllers.MyOrders(p.OrderService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/auth/login", controllers.AdminAuthLogin(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Session, logg))
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Get("/stats", controllers.AdminDashboard(p.StatsService, logg))

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", controllers.AdminListPosts(p.PostService, logg))
				r.Post("/", controllers.AdminCreatePost(p.PostService, logg))
				r.Get("/{slug}", controllers.AdminGetPost(p.PostService, logg))
				r.Patch("/{postID}", controllers.AdminUpdatePost(p.PostService, logg))
				r.Delete("/{postID}", controllers.AdminDeletePost(p.PostService, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(p.CategoryService, logg))
				r.Post("/", controllers.AdminCreateCategory(p.CategoryService, logg))
				r.Patch("/{categoryID}", controllers.AdminUpdateCategory(p.CategoryService, logg))
				r.Delete("/{categoryID}", controllers.AdminDeleteCategory(p.CategoryService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(p.OrderService, logg))
				r.Post("/{orderID}/confirm", controllers.AdminConfirmOrder(p.OrderService, logg))
				r.Post("/{orderID}/reject", controllers.AdminRejectOrder(p.OrderService, logg))
				r.Post("/{orderID}/ship", controllers.AdminShipOrder(p.OrderService, logg))
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", controllers.AdminListMessages(p.MessageService, logg))
				r.Post("/{messageID}/read", controllers.AdminMarkMessageRead(p.MessageService, logg))
				r.Delete("/{messageID}", controllers.AdminDeleteMessage(p.MessageService, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(p.UserService, logg))
				r.Patch("/{userID}/active", controllers.AdminSetUserActive(p.UserService, logg))
				r.Patch("/{userID}/role", controllers.AdminSetUserRole(p.UserService, logg))
				r.Delete("/{userID}", controllers.AdminDeleteUser(p.UserService, logg))
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", controllers.AdminListMedia(p.MediaService, logg))
				r.Post("/", controllers.AdminUploadMedia(p.MediaService, cfg.Media, logg))
				r.Delete("/{mediaID}", controllers.AdminDeleteMedia(p.MediaService, logg))
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", controllers.AdminListSettings(p.SettingService, logg))
				r.Put("/", controllers.AdminUpsertSetting(p.SettingService, logg))
			})
		})
	})

	return r
}
