// Package http exposes the REST API: accounts, third parties, category
// taxonomies, bank operations and the analysis endpoints backing the
// charts.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"comptes/internal/cache"
	"comptes/internal/core"
)

// Store is the persistence surface the handlers read from and write to.
type Store interface {
	Ping(ctx context.Context) error

	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	UpdateAccount(ctx context.Context, id int64, a core.Account) (core.Account, error)

	CreateThirdParty(ctx context.Context, tp core.ThirdParty) (core.ThirdParty, error)
	ListThirdParties(ctx context.Context) ([]core.ThirdParty, error)

	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategoriesByType(ctx context.Context, t core.OperationType) ([]core.Category, error)
	UpdateCategoryName(ctx context.Context, id int64, name string) (core.Category, error)

	CreateSubCategory(ctx context.Context, categoryID int64, sc core.SubCategory) (core.SubCategory, error)
	UpdateSubCategory(ctx context.Context, categoryID, subCategoryID int64, sc core.SubCategory, move bool) (core.SubCategory, error)

	ListOperations(ctx context.Context, accountID int64) ([]core.BankOperation, error)
	ListOperationsByCategory(ctx context.Context, categoryID int64) ([]core.BankOperation, error)
}

// OperationWriter is the validated write path for bank operations; it
// also publishes change events.
type OperationWriter interface {
	Create(ctx context.Context, op core.BankOperation) (core.BankOperation, error)
	Update(ctx context.Context, id int64, op core.BankOperation) (core.BankOperation, error)
}

type Server struct {
	http.Server
	store      Store
	operations OperationWriter

	rateLimiter   *rateLimiter
	analysisCache *cache.TTLCache[[]byte]
	janitor       *cache.Janitor
	shutdownOnce  sync.Once
}

// NewServer wires the routes and returns a ready-to-run server.
func NewServer(addr string, store Store, operations OperationWriter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:         store,
		operations:    operations,
		rateLimiter:   newRateLimiter(),
		analysisCache: cache.NewTTL[[]byte](200, 5*time.Minute),
		janitor:       cache.NewJanitor(),
	}
	s.janitor.Register(s.analysisCache)
	s.janitor.Start(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /accounts", s.withMiddleware(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", s.withMiddleware(s.handleCreateAccount))
	mux.HandleFunc("GET /accounts/{id}", s.withMiddleware(s.handleGetAccount))
	mux.HandleFunc("PUT /accounts/{id}", s.withMiddleware(s.handleUpdateAccount))

	mux.HandleFunc("GET /thirdParties", s.withMiddleware(s.handleListThirdParties))
	mux.HandleFunc("POST /thirdParties", s.withMiddleware(s.handleCreateThirdParty))

	mux.HandleFunc("GET /chargeCategories", s.withMiddleware(s.handleListChargeCategories))
	mux.HandleFunc("GET /creditCategories", s.withMiddleware(s.handleListCreditCategories))
	mux.HandleFunc("POST /categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("GET /categories/{id}", s.withMiddleware(s.handleGetCategory))
	mux.HandleFunc("PUT /categories/{id}", s.withMiddleware(s.handleRenameCategory))
	mux.HandleFunc("GET /categories/{id}/bankOperations", s.withMiddleware(s.handleListCategoryOperations))
	mux.HandleFunc("POST /categories/{id}/subCategories", s.withMiddleware(s.handleCreateSubCategory))
	mux.HandleFunc("PUT /categories/{id}/subCategories/{subId}", s.withMiddleware(s.handleUpdateSubCategory))

	mux.HandleFunc("GET /accounts/{id}/bankOperations", s.withMiddleware(s.handleListOperations))
	mux.HandleFunc("POST /accounts/{id}/bankOperations", s.withMiddleware(s.handleCreateOperation))
	mux.HandleFunc("PUT /accounts/{id}/bankOperations/{opId}", s.withMiddleware(s.handleUpdateOperation))

	mux.HandleFunc("GET /accounts/{id}/ledger", s.withMiddleware(s.handleLedger))
	mux.HandleFunc("GET /accounts/{id}/analysis/balance-evolution", s.withMiddleware(s.handleBalanceEvolution))
	mux.HandleFunc("GET /accounts/{id}/analysis/calendar", s.withMiddleware(s.handleCalendar))
	mux.HandleFunc("GET /accounts/{id}/analysis/versus", s.withMiddleware(s.handleVersus))
	mux.HandleFunc("GET /categories/{id}/analysis/series", s.withMiddleware(s.handleCategorySeries))

	return s
}

// Shutdown stops the background loops and then the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
