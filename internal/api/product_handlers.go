package api

import (
	"encoding/json"
	"net/http"

	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Condition   string          `json:"condition"`
	Category    string          `json:"category"`
}

func (req *productRequest) toInput() store.ProductInput {
	return store.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		Condition:   req.Condition,
		Category:    req.Category,
	}
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := store.CreateProduct(r.Context(), s.db, currentUser(r).UserID, req.toInput())
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := store.UpdateProduct(r.Context(), s.db, currentUser(r).UserID, id, req.toInput())
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	// The edit reset the listing to IN_REVIEW, so cached catalog pages are stale.
	s.catalog.Invalidate(r.Context())

	writeJSON(w, http.StatusOK, product)
}

func (s *Server) myProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := store.ListProductsByOwner(r.Context(), s.db, currentUser(r).UserID, page, pageSize)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// listCatalog serves the public catalog, fronted by the optional redis cache.
func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	if cached := s.catalog.GetPage(r.Context(), page, pageSize); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	result, err := store.ListCatalog(r.Context(), s.db, page, pageSize)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}
	s.catalog.SetPage(r.Context(), page, pageSize, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) listProductsForModeration(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.ProductStatusInReview
	}
	page, pageSize := pageParams(r)

	result, err := store.ListProductsByStatus(r.Context(), s.db, status, page, pageSize)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) moderationDecision(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := store.SetProductStatus(r.Context(), s.db, id, status)
		if err != nil {
			writeStoreError(w, s.log, err)
			return
		}

		s.catalog.Invalidate(r.Context())

		writeJSON(w, http.StatusOK, product)
	}
}
