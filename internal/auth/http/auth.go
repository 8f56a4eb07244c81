package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/identity"
	"github.com/bmteam/authgate/internal/auth/service"
	"github.com/bmteam/authgate/pkg/authsdk"
	"github.com/bmteam/authgate/pkg/httpx"
	"github.com/bmteam/authgate/pkg/slogx"
)

type RegisterHandler struct {
	AuthService  *service.AuthService
	CookieSecure bool
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}
	if !validateRequest(w, req) {
		return
	}

	res, err := h.AuthService.Register(ctx, req.InviteToken, req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case service.IsInviteRejection(err):
			// All invite failures look the same from outside so tokens
			// cannot be probed for state.
			httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
				Error:            authsdk.ErrorCodeInvalidToken,
				ErrorDescription: "invalid or expired invite token",
			})
		case errors.Is(err, identity.ErrConflict):
			httpx.WriteJSON(w, http.StatusConflict, authsdk.ErrorResponse{
				Error:            authsdk.ErrorCodeConflict,
				ErrorDescription: "an account with this email or name already exists",
			})
		default:
			log.Error("registration failed", "err", err)
			writeServerError(w)
		}
		return
	}

	// Registration signs the new account in, so it carries the same
	// credential pair as login.
	setSessionCookies(w, res.Session, h.CookieSecure)

	httpx.WriteJSON(w, http.StatusCreated, authsdk.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.AuthService.JWTTTLSeconds()),
		User:        toUserResponse(res.User),
	})
}

type LoginHandler struct {
	AuthService  *service.AuthService
	CookieSecure bool
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}
	if !validateRequest(w, req) {
		return
	}

	res, err := h.AuthService.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteJSON(w, http.StatusUnauthorized, authsdk.ErrorResponse{
				Error:            authsdk.ErrorCodeInvalidCredential,
				ErrorDescription: "invalid credentials",
			})
			return
		}
		log.Error("login failed", "err", err)
		writeServerError(w)
		return
	}

	setSessionCookies(w, res.Session, h.CookieSecure)

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.AuthService.JWTTTLSeconds()),
		User:        toUserResponse(res.User),
	})
}

type LogoutHandler struct {
	AuthService  *service.AuthService
	CookieSecure bool
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AuthService.Logout(ctx, sessionIDFromCtx(ctx)); err != nil {
		log.Error("logout failed", "err", err)
		writeServerError(w)
		return
	}

	clearSessionCookies(w, h.CookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

type MeHandler struct {
	AuthService *service.AuthService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, err := h.AuthService.Me(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeUnauthorized(w)
			return
		}
		log.Error("me lookup failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
