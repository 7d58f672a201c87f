package middleware

import (
	"net/http"

	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// CORSMiddleware adds CORS headers to allow cross-origin requests from the
// browser planner and answers preflight requests directly
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(utils.HeaderAccessControlAllowOrigin, utils.CORSAllowOriginAll)
		w.Header().Set(utils.HeaderAccessControlAllowMethods, utils.CORSAllowMethodsAll)
		w.Header().Set(utils.HeaderAccessControlAllowHeaders, utils.CORSAllowHeadersStd)
		w.Header().Set(utils.HeaderAccessControlExposeHeaders, utils.CORSExposeHeadersStd)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
