package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// CORSMiddleware wraps the admin surface with the narrow CORS policy it
// actually needs: both routes are read-only GETs, so only GET and the
// OPTIONS preflight it implies are allowed.
func CORSMiddleware(next http.HandlerFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodOptions {
			logger.Debug("handling CORS preflight", zap.String("path", r.URL.Path))
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}
