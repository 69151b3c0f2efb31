package middleware

import (
	"mime"
	"net/http"

	"github.com/utafrali/storefront-cart/pkg/httputil"
)

// RequireJSON rejects POST, PUT and PATCH requests whose body is not
// declared as application/json.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "content type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
