package http

import (
	"net/http"

	"lapkeu/internal/core"
	applog "lapkeu/internal/log"
	"lapkeu/internal/repository"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	case http.MethodPut:
		s.updateTransaction(w, r)
	case http.MethodDelete:
		s.deleteTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PUT, DELETE, OPTIONS")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.List(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	if list == nil {
		list = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": list})
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var draft repository.Draft
	if err := decodeBody(w, r, &draft); err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}

	tx, err := s.ledger.Create(r.Context(), draft)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	s.logChange(r, applog.OpCreate, tx)
	writeJSON(w, http.StatusCreated, okBody{OK: true, Tx: tx})
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
		repository.Patch
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}

	tx, err := s.ledger.Update(r.Context(), idFrom(r, body.ID), body.Patch)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	s.logChange(r, applog.OpUpdate, tx)
	writeJSON(w, http.StatusOK, okBody{OK: true, Updated: tx})
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}

	id := idFrom(r, body.ID)
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	s.logChange(r, applog.OpDelete, core.Transaction{ID: id})
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *Server) logChange(r *http.Request, op string, tx core.Transaction) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionChanged(r.Context(), op, tx.ID, string(tx.Type), int64(tx.Amount), tx.Sector)
}
