package audit

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/zlomke76-del/solace-adapter/pkg/domain"
)

func newMockSink(t *testing.T) (*Sink, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return &Sink{db: db}, mock
}

func TestNew_NoDSNRunsInNoDBMode(t *testing.T) {
	sink, err := New("")
	require.NoError(t, err)
	require.NotNil(t, sink)

	sink.Record(context.Background(), "req-1", domain.GateResult{Decision: domain.Permit}, "billing", "actor-1")
}

func TestRecord_InsertsRow(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "gate_audit_log"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	sink.Record(context.Background(), "req-1", domain.GateResult{
		Decision: domain.Permit,
		Reason:   "forwarded_after_core_permit",
	}, "billing", "actor-1")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_NilSinkIsNoop(t *testing.T) {
	var sink *Sink
	sink.Record(context.Background(), "req-1", domain.GateResult{Decision: domain.Deny}, "billing", "actor-1")
}
