package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewResponse().JSON(txs).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	d, err := NewRequestBodyParser(w, r).TransactionDraft()
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	tx, err := s.ledger.CreateTransaction(r.Context(), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateViews()
	s.logRecord(r, log.OpCreate, tx.ID)
	NewResponse().Status(http.StatusCreated).JSON(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	d, err := NewRequestBodyParser(w, r).TransactionDraft()
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	tx, err := s.ledger.UpdateTransaction(r.Context(), d.WithID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateViews()
	s.logRecord(r, log.OpUpdate, tx.ID)
	NewResponse().JSON(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateViews()
	s.logRecord(r, log.OpDelete, id)
	NoContent().Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().JSON(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	d, err := NewRequestBodyParser(w, r).CategoryDraft()
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	c, err := s.ledger.CreateCategory(r.Context(), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateViews()
	s.logRecord(r, log.OpCreate, c.ID)
	NewResponse().Status(http.StatusCreated).JSON(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	d, err := NewRequestBodyParser(w, r).CategoryDraft()
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	c, err := s.ledger.UpdateCategory(r.Context(), d.WithID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateViews()
	s.logRecord(r, log.OpUpdate, c.ID)
	NewResponse().JSON(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateViews()
	s.logRecord(r, log.OpDelete, id)
	NoContent().Write(w)
}

func (s *Server) logRecord(r *http.Request, op, id string) {
	log.FromContext(r.Context()).WithComponent(log.ComponentLedger).InfoContext(r.Context(), "Record changed",
		log.FieldOperation, op,
		log.FieldRecordID, id,
		log.FieldPath, r.URL.Path)
}
