package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mock.ExpectPing()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	st, err := New(context.Background(), mock, zaptest.NewLogger(t))
	require.NoError(t, err)
	return st, mock
}

func TestNew_PingFailure(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err = New(context.Background(), mock, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "ping")
}

func TestTrackUser_UpsertsProfile(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(int64(42), "amina", "Amina", "K", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.TrackUser(context.Background(), 42, "amina", "Amina", "K")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackUser_ExecError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(int64(42), "amina", "Amina", "K", pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock"))

	err := st.TrackUser(context.Background(), 42, "amina", "Amina", "K")
	assert.ErrorContains(t, err, "upsert user 42")
}

func TestIncrementMessageCount(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET message_count = message_count + 1")).
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.IncrementMessageCount(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserStats(t *testing.T) {
	st, mock := newMockStore(t)
	firstSeen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	lastSeen := firstSeen.Add(48 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT telegram_id, username, first_name, last_name")).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{
			"telegram_id", "username", "first_name", "last_name", "first_seen", "last_seen", "message_count",
		}).AddRow(int64(42), "amina", "Amina", "K", firstSeen, lastSeen, 7))

	stats, err := st.GetUserStats(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.TelegramID)
	assert.Equal(t, "amina", stats.Username)
	assert.Equal(t, firstSeen, stats.FirstSeen)
	assert.Equal(t, 7, stats.MessageCount)
}

func TestCountUsers(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(123))

	count, err := st.CountUsers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 123, count)
}
