package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/handler"
	"github.com/qhosting/cloudsms/internal/middleware"
)

func setupRouter(h api.ServerInterface) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, "api/openapi.yaml")
	})

	api.HandlerWithOptions(h, api.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: parameterError,
	})

	return r
}

// parameterError reports path and query binding failures in the same
// envelope as every other error.
func parameterError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, http.StatusBadRequest, handler.ErrorCodeInvalidParameter, err.Error())
}
