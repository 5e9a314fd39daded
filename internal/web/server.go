// Package web serves a small read-only status dashboard on localhost. It
// exposes the customer ledger and the processing history; all state changes
// happen through the mail workflow, so every endpoint is GET.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/automail-support/automail/internal/history"
	"github.com/automail-support/automail/internal/ledger"
)

type Server struct {
	ledger  *ledger.Ledger
	history *history.Store
}

func New(l *ledger.Ledger, h *history.Store) *Server {
	return &Server{ledger: l, history: h}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/api/customers", s.handleCustomers)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/stats", s.handleStats)

	return r
}

// ListenAndServe binds to localhost only; the dashboard is an operator tool,
// not a public surface.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Dashboard listening on http://%s", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><head><title>automail</title></head><body>
<h2>automail status</h2>
<p>%d customers in ledger</p>
<ul>
<li><a href="/api/customers">customers</a></li>
<li><a href="/api/history">history</a></li>
<li><a href="/api/stats">stats</a></li>
</ul>
</body></html>`, s.ledger.Len())
}

type customerView struct {
	Name        string `json:"name"`
	RegNo       string `json:"reg_no"`
	CarName     string `json:"car_name"`
	Area        string `json:"area"`
	ProblemArea string `json:"problem_area"`
	Status      string `json:"status"`
	RaisedDate  string `json:"raised_date"`
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	records := s.ledger.Records()
	views := make([]customerView, 0, len(records))
	for _, rec := range records {
		views = append(views, customerView{
			Name:        rec.Name,
			RegNo:       rec.RegNo,
			CarName:     rec.CarName,
			Area:        rec.Area,
			ProblemArea: rec.ProblemArea,
			Status:      rec.Status,
			RaisedDate:  rec.RaisedDate,
		})
	}
	writeJSON(w, views)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.history.Recent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.history.Stats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"customers": s.ledger.Len(),
		"processed": stats,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}
