package testutil

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiwatch/taxiwatch-backend/pkg/database"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// MockDB is a database.DB backed by sqlmock. Expected statements are
// matched literally, not as regular expressions.
//
//	mockDB := testutil.NewMockDB(t)
//	defer mockDB.Close()
//	mockDB.ExpectQuery("SELECT value FROM app_state").WillReturnRows(...)
//	backend := repository.NewPostgresBackend(mockDB.DB, "taxiWatchReports")
type MockDB struct {
	DB   *database.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB opens a sqlmock connection wrapped as a database.DB.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "create sqlmock")
	return &MockDB{DB: database.Wrap(db, logger.Nop()), Mock: mock}
}

// Close closes the mock connection.
func (m *MockDB) Close() error {
	return m.DB.Close()
}

// ExpectQuery expects query verbatim.
func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

// ExpectExec expects statement verbatim.
func (m *MockDB) ExpectExec(statement string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(statement))
}

// ExpectationsWereMet fails the test if an expected statement never ran.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	assert.NoError(t, m.Mock.ExpectationsWereMet(), "unfulfilled sqlmock expectations")
}

// MockRows starts a result set with the given columns.
func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

// PublishedEvent is one call recorded by MockPublisher.
type PublishedEvent struct {
	Type    string
	Payload interface{}
}

// MockPublisher records published events. When Err is set, Publish fails
// with it and records nothing.
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

// NewMockPublisher returns an empty recorder.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish implements messaging.EventPublisher.
func (m *MockPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, PublishedEvent{Type: eventType, Payload: payload})
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.events...)
}

// AssertEventPublished fails the test unless an event of eventType was recorded.
func (m *MockPublisher) AssertEventPublished(t *testing.T, eventType string) {
	t.Helper()
	for _, e := range m.Events() {
		if e.Type == eventType {
			return
		}
	}
	assert.Failf(t, "event not published", "expected a %q event, got %+v", eventType, m.Events())
}

// AssertNoEventsPublished fails the test if anything was recorded.
func (m *MockPublisher) AssertNoEventsPublished(t *testing.T) {
	t.Helper()
	assert.Empty(t, m.Events(), "expected no published events")
}
