package controllers

import (
	"context"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/pkg/dripflow/core"
)

type AuthController struct {
	ApiClientRepo engine.ApiClientRepo
}

// RequireAuth authenticates the X-API-Key header against the bcrypt-hashed
// keys of the enabled API clients. Keys are never stored in the clear, so the
// comparison walks the (small) client table.
func (c *AuthController) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		clients, err := c.ApiClientRepo.FindEnabled()
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		for _, client := range clients {
			if bcrypt.CompareHashAndPassword([]byte(client.KeyHash), []byte(apiKey)) == nil {
				ctx := context.WithValue(r.Context(), core.CtxKeyClientName, client.Name)
				next(w, r.WithContext(ctx))
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
}
