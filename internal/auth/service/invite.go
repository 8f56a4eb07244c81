package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/store"
	"github.com/bmteam/authgate/pkg/cryptox"
	"github.com/bmteam/authgate/pkg/idx"
	"github.com/bmteam/authgate/pkg/slogx"
)

var (
	ErrInvalidInviteRequest = errors.New("invalid invite request")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInviteExpired        = errors.New("invite has expired")
	ErrInviteAlreadyUsed    = errors.New("invite has already been used")
	ErrInviteRevoked        = errors.New("invite has been revoked")
	ErrEmailMismatch        = errors.New("invite was issued for a different email")
)

const (
	// DefaultInviteTTL applies when the creator does not pick an expiry.
	DefaultInviteTTL = 72 * time.Hour

	// MaxInviteTTL caps creator-chosen expiries.
	MaxInviteTTL = 30 * 24 * time.Hour
)

type InviteService struct {
	Store store.Store

	// Secret keys the HMAC fingerprint of invite tokens. Only fingerprints
	// touch the database.
	Secret string
}

// InviteStatus is the public view of a token's state, returned by Validate
// without consuming the invite.
type InviteStatus struct {
	Valid     bool
	Email     string
	Role      domain.Role
	ExpiresAt time.Time
}

// CreateInvite mints a new single-use invite bound to an email and role and
// returns the raw token. The fingerprint, never the token, is persisted.
func (s *InviteService) CreateInvite(
	ctx context.Context,
	email string,
	role domain.Role,
	ttl time.Duration,
	createdBy string,
) (string, domain.Invite, error) {
	log := slogx.FromContext(ctx)

	// An empty email creates an unbound invite any address may redeem.
	email = domain.FoldEmail(email)

	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		log.Warn("attempted to create invite with invalid role",
			slog.String("role", string(role)),
		)
		return "", domain.Invite{}, ErrInvalidRole
	}

	if ttl == 0 {
		ttl = DefaultInviteTTL
	}
	if ttl < 0 || ttl > MaxInviteTTL {
		return "", domain.Invite{}, ErrInvalidInviteRequest
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return "", domain.Invite{}, err
	}

	fingerprint, err := cryptox.FingerprintToken(token, s.Secret)
	if err != nil {
		return "", domain.Invite{}, err
	}

	now := time.Now().UTC()
	invite := domain.Invite{
		ID:        idx.New().String(),
		TokenHash: fingerprint,
		Email:     email,
		Role:      role,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.Store.Invites().CreateInvite(ctx, invite); err != nil {
		log.Error("failed to create invite",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
		return "", domain.Invite{}, err
	}

	log.Info("invite created",
		slog.String("invite_id", invite.ID),
		slog.String("role", string(role)),
		slog.Time("expires_at", invite.ExpiresAt),
	)

	return token, invite, nil
}

// ValidateInvite reports whether a raw token is currently redeemable for
// the presented email. An empty email skips the binding check, for callers
// probing a token before they know who will redeem it. Validation never
// consumes the invite; the public result never says why a token is bad,
// but the specific cause is logged.
func (s *InviteService) ValidateInvite(ctx context.Context, token, email string) (InviteStatus, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.lookup(ctx, token)
	if err != nil {
		if IsInviteRejection(err) {
			log.Info("invite validation rejected", slog.String("reason", err.Error()))
			return InviteStatus{Valid: false}, nil
		}
		return InviteStatus{}, err
	}

	if email == "" {
		email = inv.Email
	}
	if reason := rejectionReason(inv, time.Now(), email); reason != nil {
		log.Info("invite validation rejected",
			slog.String("invite_id", inv.ID),
			slog.String("reason", reason.Error()),
		)
		return InviteStatus{Valid: false}, nil
	}

	return InviteStatus{Valid: true, Email: inv.Email, Role: inv.Role, ExpiresAt: inv.ExpiresAt}, nil
}

// rejectionReason classifies why an invite cannot be redeemed for email at
// the instant now, or returns nil when it can. Expiry is derived from the
// wall clock, never stored as a state transition.
func rejectionReason(inv domain.Invite, now time.Time, email string) error {
	switch {
	case inv.Revoked:
		return ErrInviteRevoked
	case inv.UsedAt != nil:
		return ErrInviteAlreadyUsed
	case !now.Before(inv.ExpiresAt):
		return ErrInviteExpired
	case !inv.MatchesEmail(email):
		return ErrEmailMismatch
	}
	return nil
}

// ConsumeInvite atomically claims the invite for usedBy. Exactly one caller
// wins a concurrent race; the rest get ErrInviteAlreadyUsed. The claim can
// be unwound with ReleaseInvite while registration completes.
func (s *InviteService) ConsumeInvite(ctx context.Context, token, email, usedBy string) (domain.Invite, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.lookup(ctx, token)
	if err != nil {
		return domain.Invite{}, err
	}

	now := time.Now()
	if reason := rejectionReason(inv, now, email); reason != nil {
		if errors.Is(reason, ErrEmailMismatch) {
			log.Warn("invite consumption attempted with mismatched email",
				slog.String("invite_id", inv.ID),
			)
		}
		return domain.Invite{}, reason
	}

	if err := s.Store.Invites().MarkInviteUsed(ctx, inv.ID, usedBy, now.UTC()); err != nil {
		if errors.Is(err, store.ErrAlreadyUsed) {
			// Lost the race to a concurrent consumer.
			return domain.Invite{}, ErrInviteAlreadyUsed
		}
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invite{}, ErrInviteNotFound
		}
		log.Error("failed to mark invite used",
			slog.String("invite_id", inv.ID),
			slog.Any("error", err),
		)
		return domain.Invite{}, err
	}

	log.Info("invite consumed",
		slog.String("invite_id", inv.ID),
		slog.String("used_by", usedBy),
	)
	return inv, nil
}

// ReleaseInvite unwinds a claim after the rest of registration fails. The
// invite becomes redeemable again.
func (s *InviteService) ReleaseInvite(ctx context.Context, inviteID string) error {
	log := slogx.FromContext(ctx)

	if err := s.Store.Invites().ReleaseInvite(ctx, inviteID); err != nil {
		log.Error("failed to release invite claim",
			slog.String("invite_id", inviteID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invite claim released", slog.String("invite_id", inviteID))
	return nil
}

// RevokeInvite permanently disables an unredeemed invite.
func (s *InviteService) RevokeInvite(ctx context.Context, inviteID string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.Invites().RevokeInvite(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		if errors.Is(err, store.ErrAlreadyUsed) {
			return ErrInviteAlreadyUsed
		}
		log.Error("failed to revoke invite",
			slog.String("invite_id", inviteID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invite revoked", slog.String("invite_id", inviteID))
	return nil
}

// InviteSummary is the administrative list view of an invite. Token
// fingerprints never leave the store layer.
type InviteSummary struct {
	ID        string
	Email     string
	Role      domain.Role
	CreatedBy string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	UsedBy    string
	Revoked   bool
}

// ListInvites returns every invite, newest first, redacted to summaries.
func (s *InviteService) ListInvites(ctx context.Context) ([]InviteSummary, error) {
	invites, err := s.Store.Invites().ListInvites(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]InviteSummary, 0, len(invites))
	for _, inv := range invites {
		out = append(out, InviteSummary{
			ID:        inv.ID,
			Email:     inv.Email,
			Role:      inv.Role,
			CreatedBy: inv.CreatedBy,
			CreatedAt: inv.CreatedAt,
			ExpiresAt: inv.ExpiresAt,
			UsedAt:    inv.UsedAt,
			UsedBy:    inv.UsedBy,
			Revoked:   inv.Revoked,
		})
	}
	return out, nil
}

// CleanupExpired deletes invites past their expiry and reports the count.
func (s *InviteService) CleanupExpired(ctx context.Context) (int64, error) {
	log := slogx.FromContext(ctx)

	n, err := s.Store.Invites().DeleteExpiredInvites(ctx, time.Now().UTC())
	if err != nil {
		log.Error("failed to clean up expired invites", slog.Any("error", err))
		return 0, err
	}

	if n > 0 {
		log.Info("expired invites removed", slog.Int64("count", n))
	}
	return n, nil
}

func (s *InviteService) lookup(ctx context.Context, token string) (domain.Invite, error) {
	if token == "" {
		return domain.Invite{}, ErrInviteNotFound
	}

	fingerprint, err := cryptox.FingerprintToken(token, s.Secret)
	if err != nil {
		return domain.Invite{}, err
	}

	inv, err := s.Store.Invites().GetInviteByTokenHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invite{}, ErrInviteNotFound
		}
		return domain.Invite{}, err
	}
	return inv, nil
}

// IsInviteRejection reports whether err is one of the invite state errors,
// as opposed to an infrastructure failure. The HTTP layer collapses all of
// these into one generic response so token state cannot be probed.
func IsInviteRejection(err error) bool {
	return errors.Is(err, ErrInviteNotFound) ||
		errors.Is(err, ErrInviteExpired) ||
		errors.Is(err, ErrInviteAlreadyUsed) ||
		errors.Is(err, ErrInviteRevoked) ||
		errors.Is(err, ErrEmailMismatch)
}
