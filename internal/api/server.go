package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safar/go-marketplace/internal/auth"
	"github.com/safar/go-marketplace/internal/cache"
	"github.com/safar/go-marketplace/internal/events"
	"github.com/safar/go-marketplace/internal/models"
)

type Server struct {
	db       *sql.DB
	tokens   *auth.TokenService
	catalog  *cache.Catalog
	producer *events.Producer
	log      *slog.Logger
}

func NewServer(db *sql.DB, tokens *auth.TokenService, catalog *cache.Catalog, producer *events.Producer, log *slog.Logger) *Server {
	return &Server{db: db, tokens: tokens, catalog: catalog, producer: producer, log: log}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(metricsMiddleware)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/products/catalog", s.listCatalog)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(models.RoleCommon))
				r.Post("/products", s.createProduct)
				r.Put("/products/{id}", s.updateProduct)
				r.Get("/products/mine", s.myProducts)

				r.Get("/cart", s.getCart)
				r.Post("/cart/items", s.addCartItem)
				r.Patch("/cart/items/{id}", s.updateCartItemQty)
				r.Delete("/cart/items/{id}", s.removeCartItem)
				r.Delete("/cart", s.clearCart)

				r.Post("/orders/checkout", s.checkout)
				r.Get("/orders/mine", s.myOrders)

				r.Get("/cards", s.listCards)
				r.Post("/cards", s.createCard)
				r.Delete("/cards/{id}", s.deleteCard)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(models.RoleModerator))
				r.Get("/moderation/products", s.listProductsForModeration)
				r.Patch("/moderation/products/{id}/approve", s.moderationDecision(models.ProductStatusApproved))
				r.Patch("/moderation/products/{id}/reject", s.moderationDecision(models.ProductStatusRejected))
				r.Patch("/moderation/products/{id}/reopen", s.moderationDecision(models.ProductStatusInReview))
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(models.RoleLogistics))
				r.Get("/orders", s.listOrders)
				r.Get("/orders/{id}", s.getOrder)
				r.Patch("/orders/{id}/ship", s.shipOrder)
				r.Patch("/orders/{id}/deliver", s.deliverOrder)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(models.RoleAdmin))
				r.Get("/admin/users", s.listUsers)
				r.Post("/admin/users", s.createWorker)
				r.Patch("/admin/users/{id}/suspend", s.setUserActive(false))
				r.Patch("/admin/users/{id}/activate", s.setUserActive(true))

				r.Get("/reports/top-products", s.reportTopProducts)
				r.Get("/reports/top-buyers-spend", s.reportTopBuyersBySpend)
				r.Get("/reports/top-sellers-units", s.reportTopSellersByUnits)
				r.Get("/reports/top-buyers-orders", s.reportTopBuyersByOrders)
				r.Get("/reports/top-sellers-listings", s.reportTopSellersByListings)
			})
		})
	})

	return r
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
