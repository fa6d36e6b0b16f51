package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/cohortlabs/oracle/internal/api/handler"
	"github.com/cohortlabs/oracle/internal/api/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	LLM         handler.LLMStatus
	Version     string
	Oracle      handler.OracleService
	OpenAPISpec []byte

	// Authenticator guards /oracle when set.
	Authenticator middleware.Authenticator

	// Bridge routes are mounted only when all three are set.
	BridgeVerifier handler.SignatureVerifier
	BridgeMembers  handler.MemberResolver
	Commands       handler.CommandRunner
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.LLM, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Oracle != nil {
		oracleHandler := handler.NewOracleHandler(deps.Oracle)
		r.Group(func(r chi.Router) {
			if deps.Authenticator != nil {
				r.Use(middleware.Auth(deps.Authenticator))
			}
			r.Post("/oracle", oracleHandler.Ask)
		})
	}

	if deps.BridgeVerifier != nil && deps.BridgeMembers != nil && deps.Commands != nil {
		bridgeHandler := handler.NewBridgeHandler(deps.BridgeVerifier, deps.BridgeMembers, deps.Commands)
		r.Post("/bridge/interactions", bridgeHandler.Interactions)
	}

	return r
}
