package server

import (
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// adminOnly guards the admin routes: the X-Admin-ID header must be on the
// static allowlist, and when a key hash is configured the X-Admin-Key header
// must match it.
func (a *API) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-Admin-ID"), 10, 64)
		if err != nil || !a.isAdmin(id) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}

		if a.adminKeyHash != "" {
			key := r.Header.Get("X-Admin-Key")
			if bcrypt.CompareHashAndPassword([]byte(a.adminKeyHash), []byte(key)) != nil {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
