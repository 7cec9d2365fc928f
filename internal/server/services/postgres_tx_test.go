package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/auth"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lockGroupQuery   = `(?s)^SELECT\s+id,\s*name,\s*icon,\s*created_at\s+FROM\s+groups\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`
	isMemberQuery    = `SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+group_members`
	removeMemberExec = `DELETE\s+FROM\s+group_members\s+WHERE\s+group_id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`
	countMembers     = `SELECT\s+COUNT\(\*\)\s+FROM\s+group_members`
	deleteGroupExec  = `DELETE\s+FROM\s+groups\s+WHERE\s+id\s*=\s*\$1`
)

// newPostgresService runs the mediator over a sqlmock-backed Postgres
// manager. sqlmock checks expectations in order.
func newPostgresService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(repomanager.NewPostgresRepositoryManager(db),
		auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef")),
		events.NewBus(4, logging.Nop()), nil, nil, pagination.DefaultLimits, logging.Nop())
	return svc, mock
}

func asUser(id int64) context.Context {
	return principal.WithFuture(context.Background(), principal.Resolved(&models.User{ID: id, Username: "u"}))
}

func groupRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "icon", "created_at"}).AddRow(id, "team", "", time.Now())
}

func TestLeaveGroup_LocksGroupBeforeRemovingMember(t *testing.T) {
	svc, mock := newPostgresService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockGroupQuery).WithArgs(int64(7)).WillReturnRows(groupRow(7))
	mock.ExpectQuery(isMemberQuery).WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(removeMemberExec).WithArgs(int64(7), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(countMembers).WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(deleteGroupExec).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.LeaveGroup(asUser(1), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveGroup_KeepsGroupWithRemainingMembers(t *testing.T) {
	svc, mock := newPostgresService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockGroupQuery).WithArgs(int64(7)).WillReturnRows(groupRow(7))
	mock.ExpectQuery(isMemberQuery).WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(removeMemberExec).WithArgs(int64(7), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(countMembers).WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, svc.LeaveGroup(asUser(1), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteGroup_NonMemberRollsBackAfterLock(t *testing.T) {
	svc, mock := newPostgresService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockGroupQuery).WithArgs(int64(7)).WillReturnRows(groupRow(7))
	mock.ExpectQuery(isMemberQuery).WithArgs(int64(7), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := svc.DeleteGroup(asUser(2), 7)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	require.NoError(t, mock.ExpectationsWereMet())
}
