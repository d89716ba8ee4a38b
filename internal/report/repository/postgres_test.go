package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/testutil"
)

const selectQuery = "SELECT value FROM app_state WHERE key = $1"
const upsertQuery = "INSERT INTO app_state (key, value, updated_at)"

func TestPostgresBackend_Load(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery(selectQuery).
		WithArgs("taxiWatchReports").
		WillReturnRows(testutil.MockRows("value").AddRow([]byte(`[{"id":"a"}]`)))

	data, err := NewPostgresBackend(mockDB.DB, "taxiWatchReports").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(data))
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresBackend_LoadNoRow(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery(selectQuery).
		WithArgs("taxiWatchReports").
		WillReturnRows(testutil.MockRows("value"))

	data, err := NewPostgresBackend(mockDB.DB, "taxiWatchReports").Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresBackend_Save(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	payload := `[{"id":"b"},{"id":"a"}]`
	mockDB.ExpectExec(upsertQuery).
		WithArgs("taxiWatchReports", payload).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewPostgresBackend(mockDB.DB, "taxiWatchReports").Save(context.Background(), []byte(payload))
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestPostgresBackend_SaveMapsConnectionError(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec(upsertQuery).
		WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})

	err := NewPostgresBackend(mockDB.DB, "taxiWatchReports").Save(context.Background(), []byte(`[]`))
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "STORE_UNAVAILABLE", appErr.Code)
}

func TestReportStore_PostgresSaveFailureDegrades(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery(selectQuery).
		WithArgs("taxiWatchReports").
		WillReturnRows(testutil.MockRows("value"))
	mockDB.ExpectExec(upsertQuery).
		WillReturnError(&pq.Error{Code: "42P01"})

	store := NewReportStore(NewPostgresBackend(mockDB.DB, "taxiWatchReports"), logger.Nop())
	store.Load(context.Background())
	store.Append(context.Background(), sampleReport(7))

	assert.True(t, store.Degraded())
	require.Len(t, store.All(), 1)
	mockDB.ExpectationsWereMet(t)
}

func TestReportStore_PostgresRoundTripPayload(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	want, err := json.Marshal([]interface{}{sampleReport(1)})
	require.NoError(t, err)

	mockDB.ExpectQuery(selectQuery).
		WithArgs("taxiWatchReports").
		WillReturnRows(testutil.MockRows("value"))
	mockDB.ExpectExec(upsertQuery).
		WithArgs("taxiWatchReports", string(want)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewReportStore(NewPostgresBackend(mockDB.DB, "taxiWatchReports"), logger.Nop())
	store.Load(context.Background())
	store.Append(context.Background(), sampleReport(1))

	assert.False(t, store.Degraded())
	mockDB.ExpectationsWereMet(t)
}
