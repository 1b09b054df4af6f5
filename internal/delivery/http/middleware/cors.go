package middleware

import (
	"net/http"
	"strings"
)

// corsPolicy answers cross-origin requests from a fixed origin allowlist.
// Callers authenticate with bearer tokens, so credentials are never allowed.
type corsPolicy struct {
	origins map[string]bool
	methods string
	headers string
	maxAge  string
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{
		origins: make(map[string]bool, len(allowedOrigins)),
		methods: strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete}, ", "),
		headers: "Authorization, Content-Type",
		maxAge:  "600",
	}
	for _, o := range allowedOrigins {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			p.origins[o] = true
		}
	}
	return p
}

// CORS sets Access-Control-Allow-Origin for allowlisted origins and answers
// preflights (OPTIONS with Access-Control-Request-Method) with 204.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		h.Add("Vary", "Origin")
		allowed := origin != "" && policy.origins[origin]
		if allowed {
			h.Set("Access-Control-Allow-Origin", origin)
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if allowed {
				h.Set("Access-Control-Allow-Methods", policy.methods)
				h.Set("Access-Control-Allow-Headers", policy.headers)
				h.Set("Access-Control-Max-Age", policy.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
