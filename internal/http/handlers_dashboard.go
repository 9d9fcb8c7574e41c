package http

import (
	"net/http"

	"fintrack/internal/core"
)

const viewKey = "all"

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if sum, ok := s.summaryCache.Get(viewKey); ok {
		NewResponse().JSON(sum).Write(w)
		return
	}
	gen := s.summaryCache.Generation()
	sum, err := s.ledger.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.summaryCache.SetIfCurrent(viewKey, sum, gen)
	NewResponse().JSON(sum).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if b, ok := s.breakdownCache.Get(viewKey); ok {
		NewResponse().JSON(b).Write(w)
		return
	}
	gen := s.breakdownCache.Generation()
	b, err := s.ledger.Breakdown(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if b == nil {
		b = []core.CategoryAmount{}
	}
	s.breakdownCache.SetIfCurrent(viewKey, b, gen)
	NewResponse().JSON(b).Write(w)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n := parseLimit(r.URL.Query(), "limit", defaultRecentLimit, maxRecentLimit)
	txs, err := s.ledger.Recent(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewResponse().JSON(txs).Write(w)
}
