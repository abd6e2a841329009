package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oskaz/oskaz-api/api/controllers"
	"github.com/oskaz/oskaz-api/api/middleware"
	"github.com/oskaz/oskaz-api/internal/cart"
	"github.com/oskaz/oskaz-api/internal/catalog"
	"github.com/oskaz/oskaz-api/internal/customers"
	"github.com/oskaz/oskaz-api/internal/orders"
	"github.com/oskaz/oskaz-api/internal/prefs"
	"github.com/oskaz/oskaz-api/internal/toast"
	clerkwebhook "github.com/oskaz/oskaz-api/internal/webhooks/clerk"
	"github.com/oskaz/oskaz-api/pkg/config"
	"github.com/oskaz/oskaz-api/pkg/db"
	"github.com/oskaz/oskaz-api/pkg/erp"
	"github.com/oskaz/oskaz-api/pkg/logger"
	"github.com/oskaz/oskaz-api/pkg/metrics"
	"github.com/oskaz/oskaz-api/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *db.Client
	Redis        *redis.Client
	ERP          *erp.Client
	CartManager  *cart.Manager
	ToastCenter  *toast.Center
	Preferences  *prefs.Service
	Customers    customers.Service
	Catalog      catalog.Service
	Orders       orders.Service
	WebhookSvc   *clerkwebhook.Service
	WebhookGuard *clerkwebhook.IdempotencyGuard
	Verifier     controllers.SignatureVerifier
	HTTPMetrics  *metrics.HTTPMetrics
	Gatherer     prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	var limiter middleware.RateLimiterStore
	if deps.Redis != nil {
		limiter = deps.Redis
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.WebhookRateLimit(cfg.RateLimit, limiter, logg))
		r.Post("/identity", controllers.IdentityWebhook(deps.WebhookSvc, deps.Verifier, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemsList(deps.Catalog, logg))
			r.Get("/{itemCode}", controllers.ItemGet(deps.Catalog, logg))
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/*", controllers.FilesGet(deps.ERP, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerGetByEmail(deps.Customers, logg))
			r.Post("/", controllers.CustomerCreate(deps.Customers, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Post("/", controllers.OrderCreate(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(deps.Orders, logg))
			r.Patch("/{orderID}", controllers.OrderUpdate(deps.Orders, logg))
			r.Delete("/{orderID}", controllers.OrderDelete(deps.Orders, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Identity, logg))
			r.Get("/userinfo", controllers.UserInfo(logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(cfg.Cart, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.CartManager, logg))
				r.Delete("/", controllers.CartClear(deps.CartManager, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartManager, logg))
				r.Patch("/items/{itemID}", controllers.CartUpdateItem(deps.CartManager, logg))
				r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.CartManager, logg))
				r.Post("/toggle", controllers.CartToggle(deps.CartManager, logg))
				r.Put("/visibility", controllers.CartSetVisibility(deps.CartManager, logg))
			})

			r.Route("/toasts", func(r chi.Router) {
				r.Get("/", controllers.ToastsList(deps.ToastCenter, logg))
				r.Post("/", controllers.ToastPush(deps.ToastCenter, logg))
				r.Delete("/{toastID}", controllers.ToastDismiss(deps.ToastCenter, logg))
			})

			r.Route("/preferences", func(r chi.Router) {
				r.Get("/", controllers.PreferencesGet(deps.Preferences, logg))
				r.Put("/", controllers.PreferencesSet(deps.Preferences, logg))
			})
		})
	})

	return r
}

func readinessChecks(deps Deps) map[string]controllers.Pinger {
	checks := make(map[string]controllers.Pinger, 3)
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	if deps.ERP != nil {
		checks["erp"] = deps.ERP
	}
	return checks
}
