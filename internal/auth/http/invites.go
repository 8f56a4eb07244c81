package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/service"
	"github.com/bmteam/authgate/pkg/authsdk"
	"github.com/bmteam/authgate/pkg/httpx"
	"github.com/bmteam/authgate/pkg/slogx"
)

type InviteCreateHandler struct {
	InviteService *service.InviteService
}

func (h *InviteCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.InviteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}
	if !validateRequest(w, req) {
		return
	}

	token, inv, err := h.InviteService.CreateInvite(
		ctx,
		req.Email,
		domain.Role(req.Role),
		time.Duration(req.TTLSeconds)*time.Second,
		httpx.UserIDFromCtx(ctx),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
				Error:            authsdk.ErrorCodeInvalidRequest,
				ErrorDescription: "invalid role",
			})
		case errors.Is(err, service.ErrInvalidInviteRequest):
			httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
				Error:            authsdk.ErrorCodeInvalidRequest,
				ErrorDescription: "invalid invite parameters",
			})
		default:
			log.Error("failed to create invite", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.InviteCreateResponse{
		InviteToken: token,
		InviteID:    inv.ID,
		Email:       inv.Email,
		Role:        string(inv.Role),
		ExpiresAt:   inv.ExpiresAt,
	})
}

type InviteValidateHandler struct {
	InviteService *service.InviteService
}

func (h *InviteValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.InviteValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}
	if !validateRequest(w, req) {
		return
	}

	status, err := h.InviteService.ValidateInvite(ctx, req.InviteToken, req.Email)
	if err != nil {
		log.Error("failed to validate invite", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.InviteValidateResponse{
		Valid:     status.Valid,
		Email:     status.Email,
		Role:      string(status.Role),
		ExpiresAt: status.ExpiresAt,
	})
}

type InviteListHandler struct {
	InviteService *service.InviteService
}

func (h *InviteListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	invites, err := h.InviteService.ListInvites(ctx)
	if err != nil {
		log.Error("failed to list invites", "err", err)
		writeServerError(w)
		return
	}

	out := authsdk.InviteListResponse{Invites: make([]authsdk.InviteSummary, 0, len(invites))}
	for _, inv := range invites {
		out.Invites = append(out.Invites, authsdk.InviteSummary{
			ID:        inv.ID,
			Email:     inv.Email,
			Role:      string(inv.Role),
			CreatedBy: inv.CreatedBy,
			CreatedAt: inv.CreatedAt,
			ExpiresAt: inv.ExpiresAt,
			Used:      inv.UsedAt != nil,
			UsedBy:    inv.UsedBy,
			UsedAt:    inv.UsedAt,
			Revoked:   inv.Revoked,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

type InviteRevokeHandler struct {
	InviteService *service.InviteService
}

func (h *InviteRevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	inviteID := r.PathValue("id")
	if inviteID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Error:            authsdk.ErrorCodeInvalidRequest,
			ErrorDescription: "invite id is required",
		})
		return
	}

	err := h.InviteService.RevokeInvite(ctx, inviteID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, authsdk.ErrorResponse{
				Error:            authsdk.ErrorCodeNotFound,
				ErrorDescription: "invite not found",
			})
		case errors.Is(err, service.ErrInviteAlreadyUsed):
			httpx.WriteJSON(w, http.StatusConflict, authsdk.ErrorResponse{
				Error:            authsdk.ErrorCodeConflict,
				ErrorDescription: "invite already used or revoked",
			})
		default:
			log.Error("failed to revoke invite", "err", err)
			writeServerError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type InviteCleanupHandler struct {
	InviteService *service.InviteService
}

func (h *InviteCleanupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	n, err := h.InviteService.CleanupExpired(ctx)
	if err != nil {
		log.Error("failed to clean up invites", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.InviteCleanupResponse{Removed: n})
}

func writeBadJSON(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
		Error:            authsdk.ErrorCodeInvalidRequest,
		ErrorDescription: "invalid JSON body",
	})
}

func writeServerError(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusInternalServerError, authsdk.ErrorResponse{
		Error:            authsdk.ErrorCodeServerError,
		ErrorDescription: "internal server error",
	})
}
