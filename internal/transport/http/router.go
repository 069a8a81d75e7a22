package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	request "casefile/pkg/platform/middleware/request"
	requesttime "casefile/pkg/platform/middleware/requesttime"
)

// Handler is the thin HTTP layer. It delegates to the auth service
// without embedding business logic so transport concerns stay isolated.
type Handler struct {
	auth   AuthService
	logger *slog.Logger
}

func NewHandler(auth AuthService, logger *slog.Logger) *Handler {
	return &Handler{
		auth:   auth,
		logger: logger,
	}
}

// NewRouter wires all endpoints with middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)

	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/session", h.handleSession)
	r.Post("/auth/password", h.handleChangePassword)

	return r
}
