package store

import (
	"context"
	"fmt"
	"time"

	"aijudge/pkg/schema"
)

// UserRepo upserts device users keyed by UDID.
type UserRepo struct {
	q   Querier
	now func() time.Time
}

func NewUserRepo(q Querier) *UserRepo {
	return &UserRepo{q: q, now: func() time.Time { return time.Now().UTC() }}
}

// Upsert creates the user on first sight and refreshes last_login_at after
// that. The id of an existing user never changes and last_login_at never
// moves backwards.
func (r *UserRepo) Upsert(ctx context.Context, udid string) (*schema.User, error) {
	now := r.now()
	sql, args, err := psql.Insert("app_user").
		Columns("udid", "created_at", "last_login_at").
		Values(udid, now, now).
		Suffix("ON CONFLICT (udid) DO UPDATE SET last_login_at = GREATEST(app_user.last_login_at, EXCLUDED.last_login_at)").
		Suffix("RETURNING id, udid, created_at, last_login_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	var u schema.User
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.UDID, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, mapError(err, "user", udid)
	}
	return &u, nil
}
