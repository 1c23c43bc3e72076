package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/safar/go-marketplace/internal/store"
)

func reportParams(r *http.Request, defaultLimit int) (store.ReportRange, int) {
	var rng store.ReportRange
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			rng.From = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			// Half-open interval: include the whole "to" day.
			rng.To = t.AddDate(0, 0, 1)
		}
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return rng, limit
}

func rangedReport[T any](s *Server, defaultLimit int,
	query func(ctx context.Context, db *sql.DB, rng store.ReportRange, limit int) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, limit := reportParams(r, defaultLimit)
		rows, err := query(r.Context(), s.db, rng, limit)
		if err != nil {
			writeStoreError(w, s.log, err)
			return
		}
		if rows == nil {
			rows = []T{}
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func (s *Server) reportTopProducts(w http.ResponseWriter, r *http.Request) {
	rangedReport(s, 10, store.TopProducts)(w, r)
}

func (s *Server) reportTopBuyersBySpend(w http.ResponseWriter, r *http.Request) {
	rangedReport(s, 5, store.TopBuyersBySpend)(w, r)
}

func (s *Server) reportTopSellersByUnits(w http.ResponseWriter, r *http.Request) {
	rangedReport(s, 5, store.TopSellersByUnits)(w, r)
}

func (s *Server) reportTopBuyersByOrders(w http.ResponseWriter, r *http.Request) {
	rangedReport(s, 10, store.TopBuyersByOrders)(w, r)
}

func (s *Server) reportTopSellersByListings(w http.ResponseWriter, r *http.Request) {
	_, limit := reportParams(r, 10)
	rows, err := store.TopSellersByActiveListings(r.Context(), s.db, limit)
	if err != nil {
		writeStoreError(w, s.log, err)
		return
	}
	if rows == nil {
		rows = []store.SellerListings{}
	}
	writeJSON(w, http.StatusOK, rows)
}
