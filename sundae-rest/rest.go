// Package sundaerest provides REST API utilities with CORS support and common middleware.
package sundaerest

import (
	"encoding/json"
	"fmt"
	"net/http"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
)

func Middlewares(logger zerolog.Logger, routes chi.Router) chi.Router {
	routes.Use(
		withCORS(),
		withLogger(logger),
		middleware.Recoverer,
	)
	return routes
}

// Webserver serves routes on --port in console mode, or behind API Gateway as
// a Lambda function otherwise.
func Webserver(logger zerolog.Logger, routes chi.Router) error {
	if sundaecli.CommonOpts.Console {
		logger.Info().Int("port", sundaecli.CommonOpts.Port).Msg("starting http server")
		addr := fmt.Sprintf(":%v", sundaecli.CommonOpts.Port)
		return http.ListenAndServe(addr, routes)
	}

	lambda.Start(apigateway.Wrap(routes, sundaecli.CommonOpts.Env))
	return nil
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, req *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(req.Context()).Warn().Err(err).Msg("failed to write response")
	}
}

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, req *http.Request, status int, message string) {
	JSON(w, req, status, map[string]string{"error": message})
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logger.WithContext(req.Context())
			req = req.WithContext(ctx)
			handler.ServeHTTP(w, req)
		})
	}
}
