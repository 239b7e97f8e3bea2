package commentsets

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	proposalID := uuid.New()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+commentsets\s*\(id,\s*proposal_id\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+created_at\s*$`).
		WithArgs(sqlmock.AnyArg(), proposalID).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	c, err := repo.Create(context.Background(), proposalID)
	require.NoError(t, err)
	assert.Equal(t, proposalID, c.ProposalID)
	assert.Equal(t, proposalID, c.ParentRef().ID)
}

func TestGetByProposal(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, proposalID := uuid.New(), uuid.New()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*proposal_id,\s*created_at\s+FROM\s+commentsets\s+WHERE\s+proposal_id\s*=\s*\$1$`).
		WithArgs(proposalID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "proposal_id", "created_at"}).
			AddRow(id.String(), proposalID.String(), time.Now()))

	c, err := repo.GetByProposal(context.Background(), proposalID)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`WHERE\s+id`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, common.ErrorNotFound)
}
