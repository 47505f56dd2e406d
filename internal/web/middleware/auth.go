package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// FunctionKeyHeader carries the function key, as on Azure Functions.
const FunctionKeyHeader = "x-functions-key"

// FunctionKeyAuth returns middleware that requires one of keys in the
// x-functions-key header or the code query parameter. With no keys
// configured every request passes.
func FunctionKeyAuth(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(FunctionKeyHeader)
			if key == "" {
				key = r.URL.Query().Get("code")
			}

			if key == "" {
				slog.Warn("auth: missing function key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing function key", "AUTH_MISSING_KEY")
				return
			}

			if !isValidKey(key, keys) {
				slog.Warn("auth: invalid function key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid function key", "AUTH_INVALID_KEY")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":"error","error":"` + msg + `","code":"` + code + `"}` + "\n"))
}

// isValidKey compares against every key in constant time.
func isValidKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
