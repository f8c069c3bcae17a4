package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader: заголовок с ключом администратора.
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey пропускает запрос, только если ключ из заголовка совпадает с bcrypt-хэшем.
// Пустой хэш закрывает административные маршруты полностью.
func RequireAdminKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(AdminKeyHeader)
			if hash == "" || key == "" {
				writeJSONError(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				sugar.Warnw("admin key rejected", "remote", r.RemoteAddr)
				writeJSONError(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
