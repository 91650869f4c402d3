package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/middleware"
)

func setupRouter(handler api.ServerInterface, mwConfig *middleware.Config) http.Handler {
	r := chi.NewRouter()

	// Serve OpenAPI spec
	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, "api/openapi.yaml")
	})

	api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter:       r,
		Middlewares:      middleware.Operations(mwConfig),
		ErrorHandlerFunc: paramErrorHandler,
	})

	return middleware.Chain(mwConfig)(r)
}

// paramErrorHandler renders path and query binding failures in the API error envelope.
func paramErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, api.ErrorResponse{
		Error:   "INVALID_REQUEST",
		Message: err.Error(),
	})
}
