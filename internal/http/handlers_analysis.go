package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"comptes/internal/buckets"
	"comptes/internal/core"
	"comptes/internal/ledger"
)

// Defaults for the chart windows when the query string leaves them out.
const (
	defaultCalendarDays  = 31
	defaultSeriesPeriods = 12
)

type ledgerResponse struct {
	Account        core.Account           `json:"account"`
	Operations     []operationWithBalance `json:"operations"`
	CurrentBalance core.Money             `json:"currentBalance"`
}

type operationWithBalance struct {
	core.BankOperation
	Balance core.Money `json:"balance"`
}

// handleLedger returns the account's operations in chronological order,
// each with the running balance after it, plus the balance as of now.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	s.cached(w, r, func() (any, error) {
		account, err := s.store.GetAccount(r.Context(), accountID)
		if err != nil {
			return nil, err
		}
		ops, err := s.store.ListOperations(r.Context(), accountID)
		if err != nil {
			return nil, err
		}

		balances, err := ledger.ComputeBalances(account.StartingBalance, ops, time.Now())
		if err != nil {
			return nil, err
		}

		resp := ledgerResponse{
			Account:        account,
			Operations:     make([]operationWithBalance, len(ops)),
			CurrentBalance: balances.Current,
		}
		for i, op := range ops {
			resp.Operations[i] = operationWithBalance{
				BankOperation: op,
				Balance:       balances.PerOperation[i],
			}
		}
		return resp, nil
	})
}

func (s *Server) handleBalanceEvolution(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	maxPeriods, err := queryInt(r, "maxPeriods", 0)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	s.cached(w, r, func() (any, error) {
		account, err := s.store.GetAccount(r.Context(), accountID)
		if err != nil {
			return nil, err
		}
		ops, err := s.store.ListOperations(r.Context(), accountID)
		if err != nil {
			return nil, err
		}
		return buckets.BalanceEvolution(account.StartingBalance, ops, time.Now(), maxPeriods)
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	view := buckets.ViewNet
	if v := r.URL.Query().Get("view"); v != "" {
		if view, err = buckets.ParseViewType(v); err != nil {
			respondBadRequest(w, err.Error())
			return
		}
	}
	maxDays, err := queryInt(r, "maxDays", defaultCalendarDays)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	s.cached(w, r, func() (any, error) {
		if _, err := s.store.GetAccount(r.Context(), accountID); err != nil {
			return nil, err
		}
		ops, err := s.store.ListOperations(r.Context(), accountID)
		if err != nil {
			return nil, err
		}
		return buckets.Calendar(ops, time.Now(), view, maxDays)
	})
}

// handleVersus opposes total charges and credits over a date window. The
// window defaults to the current month so far; from/to are YYYY-MM-DD,
// both inclusive. categories, subCategories and uncategorized narrow the
// fold to a selection of the taxonomy.
func (s *Server) handleVersus(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			respondBadRequest(w, "invalid from: want YYYY-MM-DD")
			return
		}
	}
	to := now
	if v := r.URL.Query().Get("to"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondBadRequest(w, "invalid to: want YYYY-MM-DD")
			return
		}
		to = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	if to.Before(from) {
		respondBadRequest(w, "to precedes from")
		return
	}

	include, err := versusInclude(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	s.cached(w, r, func() (any, error) {
		if _, err := s.store.GetAccount(r.Context(), accountID); err != nil {
			return nil, err
		}
		ops, err := s.store.ListOperations(r.Context(), accountID)
		if err != nil {
			return nil, err
		}
		return buckets.Versus(ops, from, to, include)
	})
}

// versusInclude builds the selection predicate from the query string:
// categories counts everything in a category, subCategories counts single
// sub-categories, uncategorized counts a category's operations that carry
// no sub-category. All absent means everything counts.
func versusInclude(r *http.Request) (buckets.IncludeFunc, error) {
	cats, err := queryIDSet(r, "categories")
	if err != nil {
		return nil, err
	}
	subs, err := queryIDSet(r, "subCategories")
	if err != nil {
		return nil, err
	}
	uncat, err := queryIDSet(r, "uncategorized")
	if err != nil {
		return nil, err
	}
	if cats == nil && subs == nil && uncat == nil {
		return nil, nil
	}
	return func(op core.BankOperation) bool {
		if cats[op.Category.ID] {
			return true
		}
		if op.SubCategory != nil {
			return subs[op.SubCategory.ID]
		}
		return uncat[op.Category.ID]
	}, nil
}

func (s *Server) handleCategorySeries(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	g := buckets.Month
	if v := r.URL.Query().Get("granularity"); v != "" {
		if g, err = buckets.ParseGranularity(v); err != nil {
			respondBadRequest(w, err.Error())
			return
		}
	}
	maxPeriods, err := queryInt(r, "maxPeriods", defaultSeriesPeriods)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	s.cached(w, r, func() (any, error) {
		category, err := s.store.GetCategory(r.Context(), categoryID)
		if err != nil {
			return nil, err
		}
		ops, err := s.store.ListOperationsByCategory(r.Context(), categoryID)
		if err != nil {
			return nil, err
		}
		return buckets.CategorySeriesFor(category, ops, g, time.Now(), maxPeriods)
	})
}

// cached serves the response from the analysis cache when possible,
// otherwise builds, stores and serves it. The key is the full request URI,
// so every parametrization caches independently.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, build func() (any, error)) {
	key := r.URL.RequestURI()
	if body, ok := s.analysisCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	v, err := build()
	if err != nil {
		respondError(w, r, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		respondError(w, r, fmt.Errorf("encode analysis response: %w", err))
		return
	}
	s.analysisCache.Set(key, body)
	slog.DebugContext(r.Context(), "analysis response cached", "key", key)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// invalidateAccount drops every cached analysis of one account.
func (s *Server) invalidateAccount(accountID int64) {
	s.analysisCache.DeletePrefix(fmt.Sprintf("/accounts/%d/", accountID))
}

// invalidateCategories drops all cached category series. Operation writes
// can touch any category's chart, so the whole prefix goes.
func (s *Server) invalidateCategories() {
	s.analysisCache.DeletePrefix("/categories/")
}
