package router

import (
	"fmt"
	"net/http"

	"github.com/bitdao/governor/internal/auth"
	"github.com/bitdao/governor/internal/permissions"
	"github.com/bitdao/governor/internal/proposals"
	"github.com/bitdao/governor/internal/services/engine"
	"github.com/bitdao/governor/internal/services/registry"
	"github.com/bitdao/governor/internal/services/vault"
	"github.com/bitdao/governor/internal/treasury"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Router struct {
	apiKey   string
	admin    common.Address
	engine   *engine.Engine
	registry *registry.Registry
	vault    *vault.Vault
}

func NewServer(apiKey string, admin common.Address, e *engine.Engine, reg *registry.Registry, v *vault.Vault) *Router {
	return &Router{
		apiKey,
		admin,
		e,
		reg,
		v,
	}
}

// implement the Server interface
func (r *Router) Start(port int) error {
	cr := r.CreateRoutes()

	// start the server
	return http.ListenAndServe(fmt.Sprintf(":%v", port), cr)
}

// CreateRoutes assembles the full route tree. Split out from Start so tests
// can drive the router through httptest.
func (r *Router) CreateRoutes() chi.Router {
	cr := chi.NewRouter()

	a := auth.New(r.apiKey)

	// configure middleware
	cr.Use(middleware.RequestID)
	cr.Use(middleware.Logger)

	// configure custom middleware
	cr.Use(OptionsMiddleware)
	cr.Use(HealthMiddleware)
	cr.Use(RequestSizeLimitMiddleware(10 << 20)) // Limit request bodies to 10MB
	cr.Use(middleware.Compress(9))

	// instantiate handlers
	pr := proposals.NewService(r.engine)
	pe := permissions.NewService(r.registry, r.admin)
	tr := treasury.NewService(r.vault)

	// configure routes
	cr.Route("/proposals", func(cr chi.Router) {
		cr.Post("/", pr.Create)
		cr.Get("/", pr.List)

		cr.Route("/{proposal_id}", func(cr chi.Router) {
			cr.Get("/", pr.Get)

			// the hybrid path requires the primary factor on the transport
			cr.Post("/votes/hybrid", withSignature(pr.CastHybrid))

			// the anonymous path carries no transport identity at all
			cr.Post("/votes/zk", pr.CastZK)
		})
	})

	cr.Route("/permissions", func(cr chi.Router) {
		cr.Get("/{resource}/{actor}/{kind}", pe.IsGranted)

		// administrative surface
		cr.Group(func(cr chi.Router) {
			cr.Use(a.AuthMiddleware)

			cr.Post("/grant", pe.Grant)
			cr.Post("/revoke", pe.Revoke)
		})
	})

	cr.Route("/vault", func(cr chi.Router) {
		cr.Get("/balance", tr.Balance)
		cr.Get("/balance/{addr}", tr.Credit)
		cr.Post("/deposit", tr.Deposit)
	})

	return cr
}
