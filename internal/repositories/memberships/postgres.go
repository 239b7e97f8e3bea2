package memberships

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	selectColumns = `SELECT id, parent_kind, parent_id, user_id, flags, granted_by, granted_at, revoked_at, revoked_by FROM memberships`

	uniqueViolation = "23505"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMembership(s scanner) (*models.Membership, error) {
	m := &models.Membership{}
	var flags []byte
	var revokedAt sql.NullTime
	var revokedBy uuid.NullUUID

	err := s.Scan(&m.ID, &m.Parent.Kind, &m.Parent.ID, &m.UserID, &flags, &m.GrantedBy, &m.GrantedAt, &revokedAt, &revokedBy)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(flags, &m.Flags); err != nil {
		return nil, fmt.Errorf("decode flags: %w", err)
	}
	if revokedAt.Valid {
		m.RevokedAt = &revokedAt.Time
	}
	if revokedBy.Valid {
		m.RevokedBy = &revokedBy.UUID
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	flags, err := json.Marshal(m.Flags)
	if err != nil {
		return nil, fmt.Errorf("encode flags: %w", err)
	}

	query :=
		`INSERT INTO memberships (id, parent_kind, parent_id, user_id, flags, granted_by, granted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err = r.db.ExecContext(ctx, query, m.ID, m.Parent.Kind, m.Parent.ID, m.UserID, flags, m.GrantedBy, m.GrantedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrMembershipExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*models.Membership, error) {
	m, err := scanMembership(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	query :=
		`UPDATE memberships SET revoked_at = $1, revoked_by = $2
		 WHERE id = $3 AND revoked_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, at, by, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyRevoked
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, parent roles.Ref, userID uuid.UUID) ([]*models.Membership, error) {
	return r.list(ctx,
		selectColumns+` WHERE parent_kind = $1 AND parent_id = $2 AND user_id = $3 AND revoked_at IS NULL`,
		parent.Kind, parent.ID, userID)
}

func (r *PostgresRepository) ListActiveByParent(ctx context.Context, parent roles.Ref) ([]*models.Membership, error) {
	return r.list(ctx,
		selectColumns+` WHERE parent_kind = $1 AND parent_id = $2 AND revoked_at IS NULL ORDER BY granted_at`,
		parent.Kind, parent.ID)
}

func (r *PostgresRepository) History(ctx context.Context, parent roles.Ref) ([]*models.Membership, error) {
	return r.list(ctx,
		selectColumns+` WHERE parent_kind = $1 AND parent_id = $2 ORDER BY granted_at, revoked_at NULLS LAST`,
		parent.Kind, parent.ID)
}
