package http

import (
	"net/http"

	"comptes/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	account, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var account core.Account
	if err := decodeJSON(r, &account); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := account.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	saved, err := s.store.CreateAccount(r.Context(), account)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	var account core.Account
	if err := decodeJSON(r, &account); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := account.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	saved, err := s.store.UpdateAccount(r.Context(), id, account)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateAccount(id)
	respondJSON(w, http.StatusOK, saved)
}
