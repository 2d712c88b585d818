package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mliu/whisper/internal/auth"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// AuthMiddleware resolves the signed session cookie into a verified user id
// and attaches it to the request context. Everything behind it trusts that
// id unconditionally.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("user_id")
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userIDStr, err := auth.VerifyCookie(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID extracts the authenticated user id set by AuthMiddleware.
func UserID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(UserIDKey).(int)
	return id, ok
}
