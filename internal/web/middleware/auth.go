package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/panda279/leave-note/internal/logging"
)

// APIKeyAuth checks the X-API-Key header against keys when required is set.
// With required set and no keys configured every request is rejected.
func APIKeyAuth(required bool, keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				deny(w, r, http.StatusUnauthorized, "缺少 API 密钥", "AUTH001")
				return
			}
			if !validKey(key, keys) {
				deny(w, r, http.StatusForbidden, "API 密钥无效", "AUTH002")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	logging.FromContext(r.Context()).Warn("auth: request rejected",
		"path", r.URL.Path,
		"code", code,
		"ip", ClientIP(r),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"message": message,
		"code":    code,
	})
}

// validKey compares against every configured key in constant time.
func validKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
