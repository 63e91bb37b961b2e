package http

import (
	"fmt"
	"net/http"

	"comptes/internal/core"
)

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	ops, err := s.store.ListOperations(r.Context(), accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if ops == nil {
		ops = []core.BankOperation{}
	}
	respondJSON(w, http.StatusOK, ops)
}

func (s *Server) handleListCategoryOperations(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if _, err := s.store.GetCategory(r.Context(), categoryID); err != nil {
		respondError(w, r, err)
		return
	}
	ops, err := s.store.ListOperationsByCategory(r.Context(), categoryID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if ops == nil {
		ops = []core.BankOperation{}
	}
	respondJSON(w, http.StatusOK, ops)
}

func (s *Server) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	var op core.BankOperation
	if err := decodeJSON(r, &op); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	op.AccountID = accountID

	if _, err := s.store.GetAccount(r.Context(), accountID); err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.operations.Create(r.Context(), op)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateAccount(accountID)
	s.invalidateCategories()
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateOperation(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	opID, err := pathID(r, "opId")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	var op core.BankOperation
	if err := decodeJSON(r, &op); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if op.ID != 0 && op.ID != opID {
		respondBadRequest(w, fmt.Sprintf("operation id mismatch: body %d, path %d", op.ID, opID))
		return
	}
	op.ID = opID
	op.AccountID = accountID

	saved, err := s.operations.Update(r.Context(), opID, op)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateAccount(accountID)
	s.invalidateCategories()
	respondJSON(w, http.StatusOK, saved)
}
