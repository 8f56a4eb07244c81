package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bmteam/authgate/internal/auth/domain"
	"github.com/bmteam/authgate/internal/auth/store"
)

type invitesRepo struct {
	q dbtx
}

const inviteColumns = `id, token_hash, email, role, created_by, created_at, expires_at, used_at, used_by, revoked`

func (r *invitesRepo) scanInvite(row interface{ Scan(...any) error }) (domain.Invite, error) {
	var inv domain.Invite
	var role string
	var usedAt sql.NullTime
	var usedBy sql.NullString
	var revoked int64
	err := row.Scan(&inv.ID, &inv.TokenHash, &inv.Email, &role, &inv.CreatedBy,
		&inv.CreatedAt, &inv.ExpiresAt, &usedAt, &usedBy, &revoked)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	inv.Role = domain.Role(role)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	if usedAt.Valid {
		t := usedAt.Time.UTC()
		inv.UsedAt = &t
	}
	inv.UsedBy = usedBy.String
	inv.Revoked = revoked != 0
	return inv, nil
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	// used_by is NOT NULL; an unclaimed invite stores the empty string.
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invites (id, token_hash, email, role, created_by, created_at, expires_at, used_at, used_by, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TokenHash, domain.FoldEmail(inv.Email), string(inv.Role), inv.CreatedBy,
		inv.CreatedAt.UTC(), inv.ExpiresAt.UTC(), mapOptionalTime(inv.UsedAt), inv.UsedBy, boolToInt(inv.Revoked))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *invitesRepo) GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE token_hash = ?`, hash)
	return r.scanInvite(row)
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE id = ?`, id)
	return r.scanInvite(row)
}

func (r *invitesRepo) MarkInviteUsed(ctx context.Context, inviteID, usedBy string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invites SET used_at = ?, used_by = ?
		 WHERE id = ? AND used_at IS NULL AND revoked = 0`,
		at.UTC(), usedBy, inviteID)
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, inviteID)
}

func (r *invitesRepo) ReleaseInvite(ctx context.Context, inviteID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invites SET used_at = NULL, used_by = '' WHERE id = ?`, inviteID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitesRepo) AttributeInvite(ctx context.Context, inviteID, usedBy string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invites SET used_by = ? WHERE id = ? AND used_at IS NOT NULL`,
		usedBy, inviteID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitesRepo) RevokeInvite(ctx context.Context, inviteID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invites SET revoked = 1
		 WHERE id = ? AND used_at IS NULL AND revoked = 0`, inviteID)
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, inviteID)
}

// checkTransition disambiguates a zero-row conditional update: the invite
// either does not exist (ErrNotFound) or has already left the usable state
// (ErrAlreadyUsed).
func (r *invitesRepo) checkTransition(ctx context.Context, res sql.Result, inviteID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.GetInviteByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return err
	}
	return store.ErrAlreadyUsed
}

func (r *invitesRepo) ListInvites(ctx context.Context) ([]domain.Invite, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invites ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		inv, err := r.scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitesRepo) DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM invites WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
