package api

import (
	"encoding/json"
	"net/http"

	"github.com/safar/go-marketplace/internal/store"
)

type savedCardRequest struct {
	CardHolder string `json:"card_holder"`
	CardNumber string `json:"card_number"`
	Brand      string `json:"brand"`
	Label      string `json:"label"`
	ExpMonth   *int   `json:"exp_month"`
	ExpYear    *int   `json:"exp_year"`
}

func (s *Server) listCards(w http.ResponseWriter, r *http.Request) {
	cards, err := store.ListSavedCards(r.Context(), s.db, currentUser(r).UserID)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) createCard(w http.ResponseWriter, r *http.Request) {
	var req savedCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	card, err := store.CreateSavedCard(r.Context(), s.db, currentUser(r).UserID, store.SavedCardInput{
		CardHolder: req.CardHolder,
		CardNumber: req.CardNumber,
		Brand:      req.Brand,
		Label:      req.Label,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
	})
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) deleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	if err := store.DeleteSavedCard(r.Context(), s.db, currentUser(r).UserID, id); err != nil {
		writeStoreError(w, s.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
