package api

import (
	"encoding/json"
	"net/http"

	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
	"github.com/shopspring/decimal"
)

// cartResponse adds the derived subtotal to the cart aggregate; the value is
// computed from the line snapshots on every read, never stored.
type cartResponse struct {
	*models.Cart
	Subtotal decimal.Decimal `json:"subtotal"`
}

func toCartResponse(cart *models.Cart) cartResponse {
	return cartResponse{Cart: cart, Subtotal: cart.Subtotal()}
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type updateQtyRequest struct {
	Qty *int `json:"qty"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := store.GetOrCreateCart(r.Context(), s.db, currentUser(r).UserID)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := store.AddCartItem(r.Context(), s.db, currentUser(r).UserID, req.ProductID, req.Qty)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (s *Server) updateCartItemQty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	var req updateQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Qty == nil {
		writeError(w, http.StatusBadRequest, "qty is required")
		return
	}

	cart, err := store.UpdateCartItemQty(r.Context(), s.db, currentUser(r).UserID, id, *req.Qty)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cart item id")
		return
	}

	if err := store.RemoveCartItem(r.Context(), s.db, currentUser(r).UserID, id); err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := store.ClearCart(r.Context(), s.db, currentUser(r).UserID); err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
