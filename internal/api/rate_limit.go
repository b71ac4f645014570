package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

func RateLimit(rps int) mux.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
