package memberships

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "parent_kind", "parent_id", "user_id", "flags", "granted_by", "granted_at", "revoked_at", "revoked_by"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	parent := roles.Ref{Kind: models.KindProject, ID: uuid.New()}
	userID, grantor := uuid.New(), uuid.New()
	at := time.Now()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+memberships\s*\(id,\s*parent_kind,\s*parent_id,\s*user_id,\s*flags,\s*granted_by,\s*granted_at\)`).
		WithArgs(sqlmock.AnyArg(), models.KindProject, parent.ID, userID, []byte(`{"is_editor":true}`), grantor, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m, err := repo.Create(context.Background(), &models.Membership{
		Parent: parent, UserID: userID, Flags: map[string]bool{"is_editor": true}, GrantedBy: grantor, GrantedAt: at,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ActiveRecordExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT`).
		WillReturnError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "memberships_active_idx"}))

	_, err := repo.Create(context.Background(), &models.Membership{Flags: map[string]bool{"is_editor": true}})
	require.ErrorIs(t, err, common.ErrMembershipExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT`).WillReturnError(errors.New("check violation"))

	_, err := repo.Create(context.Background(), &models.Membership{Flags: map[string]bool{}})
	require.ErrorContains(t, err, "db error: check violation")
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, parentID, userID, grantor := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	revokedAt := time.Now()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+memberships\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), models.KindProposal, parentID.String(), userID.String(),
				[]byte(`{"is_reviewer":true,"is_presenter":false}`), grantor.String(), time.Now(), revokedAt, grantor.String()))

	m, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, roles.Ref{Kind: models.KindProposal, ID: parentID}, m.Parent)
	assert.Equal(t, map[string]bool{"is_reviewer": true, "is_presenter": false}, m.Flags)
	assert.False(t, m.IsActive())
	require.NotNil(t, m.RevokedBy)
	assert.Equal(t, grantor, *m.RevokedBy)
}

func TestGetForUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FOR\s+UPDATE$`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForUpdate(context.Background(), uuid.New())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRevoke(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, by := uuid.New(), uuid.New()
	at := time.Now()

	mock.ExpectExec(`(?s)^UPDATE\s+memberships\s+SET\s+revoked_at\s*=\s*\$1,\s*revoked_by\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s+AND\s+revoked_at\s+IS\s+NULL\s*$`).
		WithArgs(at, by, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Revoke(context.Background(), id, by, at))
}

func TestRevoke_Twice(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`UPDATE`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), uuid.New(), uuid.New(), time.Now())
	require.ErrorIs(t, err, common.ErrAlreadyRevoked)
}

func TestListActive(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	parent := roles.Ref{Kind: models.KindProject, ID: uuid.New()}
	userID := uuid.New()

	mock.ExpectQuery(`(?s)WHERE\s+parent_kind\s*=\s*\$1\s+AND\s+parent_id\s*=\s*\$2\s+AND\s+user_id\s*=\s*\$3\s+AND\s+revoked_at\s+IS\s+NULL$`).
		WithArgs(parent.Kind, parent.ID, userID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), parent.Kind, parent.ID.String(), userID.String(),
				[]byte(`{"is_usher":true}`), uuid.NewString(), time.Now(), nil, nil))

	list, err := repo.ListActive(context.Background(), parent, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsActive())
	assert.Equal(t, []string{"is_usher"}, list[0].TrueFlags())
}

func TestHistory_BadFlags(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`ORDER\s+BY\s+granted_at`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), "project", uuid.NewString(), uuid.NewString(),
				[]byte(`not json`), uuid.NewString(), time.Now(), nil, nil))

	_, err := repo.History(context.Background(), roles.Ref{Kind: "project", ID: uuid.New()})
	require.ErrorContains(t, err, "decode flags")
}

func TestListActiveByParent(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	parent := roles.Ref{Kind: models.KindOrganization, ID: uuid.New()}

	mock.ExpectQuery(`(?s)WHERE\s+parent_kind\s*=\s*\$1\s+AND\s+parent_id\s*=\s*\$2\s+AND\s+revoked_at\s+IS\s+NULL\s+ORDER\s+BY\s+granted_at$`).
		WithArgs(parent.Kind, parent.ID).
		WillReturnRows(sqlmock.NewRows(columns))

	list, err := repo.ListActiveByParent(context.Background(), parent)
	require.NoError(t, err)
	assert.Empty(t, list)
}
