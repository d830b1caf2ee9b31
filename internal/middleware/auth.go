package middleware

import (
	"context"
	"net/http"
	"strings"

	"inventario/internal/auth"
	"inventario/internal/models"
)

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

const claimsKey ctxKey = iota + 100

// Auth требует Bearer-токен на всех путях, кроме перечисленных публичных.
func Auth(v TokenValidator, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := open[r.URL.Path]; ok || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || token == r.Header.Get("Authorization") {
				// браузерный websocket не умеет выставлять заголовки
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				models.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "", "missing bearer token")
				return
			}
			claims, err := v.ValidateToken(token)
			if err != nil {
				models.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "", err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func ClaimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}
