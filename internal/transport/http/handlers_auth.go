package httptransport

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"casefile/internal/auth/models"
	"casefile/internal/auth/service"
	jsonutil "casefile/internal/transport/http/json"
	"casefile/internal/transport/http/shared"
	dErrors "casefile/pkg/domain-errors"
)

// sessionHeader carries the opaque session id on authenticated requests.
const sessionHeader = "X-Session-ID"

// AuthService is the domain surface the transport layer depends on.
type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*models.User, error)
	Login(ctx context.Context, input service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	ValidateSession(ctx context.Context, sessionID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userResponse struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type sessionResponse struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	DeviceName string    `json:"device_name"`
	RememberMe bool      `json:"remember_me"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	jsonutil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Username:   req.Username,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, sessionResponse{
		SessionID:  result.Session.ID,
		UserID:     result.User.ID.String(),
		ExpiresAt:  result.Session.ExpiresAt,
		DeviceName: result.Session.DeviceName,
		RememberMe: result.Session.RememberMe,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), r.Header.Get(sessionHeader)); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.ValidateSession(r.Context(), r.Header.Get(sessionHeader))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if user == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session is invalid or expired"))
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.ValidateSession(r.Context(), r.Header.Get(sessionHeader))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if user == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session is invalid or expired"))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		UserID:    user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role.String(),
		LastLogin: user.LastLoginAt,
	}
}

// clientIP strips the port from the remote address. The daemon binds to
// loopback, so there is no proxy header to honor.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
