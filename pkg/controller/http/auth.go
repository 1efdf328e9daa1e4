package http

import (
	"errors"
	"net/http"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
)

type authHandler struct {
	uc interfaces.AuthUseCase
}

// issueToken accepts an OAuth2 password form (username, password)
func (h *authHandler) issueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.uc.Login(ctx, r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, types.ErrAuth) {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		handleError(ctx, w, err, "Incorrect username or password")
		return
	}

	writeJSON(ctx, w, http.StatusOK, token)
}
