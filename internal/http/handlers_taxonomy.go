package http

import (
	"net/http"

	"comptes/internal/core"
)

func (s *Server) handleListThirdParties(w http.ResponseWriter, r *http.Request) {
	tps, err := s.store.ListThirdParties(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tps == nil {
		tps = []core.ThirdParty{}
	}
	respondJSON(w, http.StatusOK, tps)
}

func (s *Server) handleCreateThirdParty(w http.ResponseWriter, r *http.Request) {
	var tp core.ThirdParty
	if err := decodeJSON(r, &tp); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := tp.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	saved, err := s.store.CreateThirdParty(r.Context(), tp)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListChargeCategories(w http.ResponseWriter, r *http.Request) {
	s.listCategories(w, r, core.Charge)
}

func (s *Server) handleListCreditCategories(w http.ResponseWriter, r *http.Request) {
	s.listCategories(w, r, core.Credit)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request, t core.OperationType) {
	cats, err := s.store.ListCategoriesByType(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	respondJSON(w, http.StatusOK, cats)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	cat, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cat)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var cat core.Category
	if err := decodeJSON(r, &cat); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := cat.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	saved, err := s.store.CreateCategory(r.Context(), cat)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// handleRenameCategory applies the only supported category update: a new
// name. Type and sub-categories in the payload are ignored.
func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	var cat core.Category
	if err := decodeJSON(r, &cat); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if cat.Name == "" {
		respondError(w, r, core.ErrEmptyName)
		return
	}
	saved, err := s.store.UpdateCategoryName(r.Context(), id, cat.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateCategories()
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleCreateSubCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	var sc core.SubCategory
	if err := decodeJSON(r, &sc); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := sc.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	// The owning category must exist.
	if _, err := s.store.GetCategory(r.Context(), categoryID); err != nil {
		respondError(w, r, err)
		return
	}
	saved, err := s.store.CreateSubCategory(r.Context(), categoryID, sc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, saved)
}

// handleUpdateSubCategory renames a sub-category; with ?move=true it also
// re-parents it to the category named in the payload.
func (s *Server) handleUpdateSubCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	subID, err := pathID(r, "subId")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	var sc core.SubCategory
	if err := decodeJSON(r, &sc); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := sc.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	move := r.URL.Query().Get("move") == "true"
	if move {
		target, err := s.store.GetCategory(r.Context(), sc.CategoryID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		current, err := s.store.GetCategory(r.Context(), categoryID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		// A sub-category may only move between categories of one type.
		if target.Type != current.Type {
			respondError(w, r, core.ErrInvalidType)
			return
		}
	}

	saved, err := s.store.UpdateSubCategory(r.Context(), categoryID, subID, sc, move)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateCategories()
	respondJSON(w, http.StatusOK, saved)
}
