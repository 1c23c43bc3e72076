package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/safar/go-marketplace/internal/events"
	"github.com/safar/go-marketplace/internal/models"
	"github.com/safar/go-marketplace/internal/store"
)

type checkoutRequest struct {
	SavedCardID *int64 `json:"saved_card_id"`
	CardHolder  string `json:"card_holder"`
	CardNumber  string `json:"card_number"`
	Brand       string `json:"brand"`
	Save        bool   `json:"save"`
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := store.Checkout(r.Context(), s.db, store.CheckoutRequest{
		BuyerID:     currentUser(r).UserID,
		SavedCardID: req.SavedCardID,
		CardHolder:  req.CardHolder,
		CardNumber:  req.CardNumber,
		Brand:       req.Brand,
		SaveCard:    req.Save,
	})
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	lines := make([]events.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, events.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	s.producer.Publish(events.EventOrderPlaced, order.ID, events.MustMarshal(events.OrderPlacedPayload{
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		Subtotal:    order.Subtotal,
		PlatformFee: order.PlatformFee,
		Lines:       lines,
	}))

	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListOrdersCursor(r.Context(), s.db, currentUser(r).UserID, cursor, limit)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	page, pageSize := pageParams(r)

	result, err := store.ListOrdersByStatus(r.Context(), s.db, status, page, pageSize)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := store.GetOrder(r.Context(), s.db, id)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (s *Server) shipOrder(w http.ResponseWriter, r *http.Request) {
	s.advanceOrder(w, r, store.MarkOrderShipped, events.EventOrderShipped)
}

func (s *Server) deliverOrder(w http.ResponseWriter, r *http.Request) {
	s.advanceOrder(w, r, store.MarkOrderDelivered, events.EventOrderDelivered)
}

func (s *Server) advanceOrder(w http.ResponseWriter, r *http.Request,
	advance func(ctx context.Context, db *sql.DB, id int64) (*models.Order, error), eventType string) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := advance(r.Context(), s.db, id)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	s.producer.Publish(eventType, order.ID, events.MustMarshal(events.OrderStatusPayload{
		OrderID: order.ID,
		Status:  order.Status,
	}))

	writeJSON(w, http.StatusOK, order)
}
