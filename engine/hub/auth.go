package hub

import (
	"crypto/subtle"
	"net/http"

	"github.com/onflow/node-dashboard/engine/common/channel"
)

// authorizeCollector checks the shared collector credential of the request.
func (e *Engine) authorizeCollector(r *http.Request) bool {
	if e.config.NodeToken == "" {
		return true
	}
	return secureEqual(r.Header.Get(channel.TokenHeader), e.config.NodeToken)
}

// requireAdmin wraps an operator route with basic auth.
func (e *Engine) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || !secureEqual(user, e.config.AdminUser) || !secureEqual(password, e.config.AdminPassword) {
			e.log.Warn().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("rejected unauthorized admin request")
			w.Header().Set("WWW-Authenticate", `Basic realm="hub"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
