package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/labkeeper/internal/common"
	pb "github.com/dmitrijs2005/labkeeper/internal/proto"
	"github.com/dmitrijs2005/labkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthrough struct{}

func (passthrough) ConvertValue(v any) (driver.Value, error) { return v, nil }

var received = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (ReceiptService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewReceiptService(db, repomanager.NewPostgresRepositoryManager(), func() time.Time { return received }), mock
}

func TestRecord_UpsertsAndCountsInOneTx(t *testing.T) {
	svc, mock := newService(t)
	updated := received.Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO receipts").
		WithArgs("c1", "e1", []string{"b1"}, updated, 1, received).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT").WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	n, err := svc.Record(context.Background(), pb.Change{ID: "c1", EntryID: "e1", BlockIDs: []string{"b1"}, UpdatedAt: updated, Attempts: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_RollsBackOnError(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO receipts").WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, err := svc.Record(context.Background(), pb.Change{ID: "c1", EntryID: "e1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error recording change c1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_RejectsIncompleteChange(t *testing.T) {
	svc, mock := newService(t)

	_, err := svc.Record(context.Background(), pb.Change{ID: "c1"})
	assert.ErrorIs(t, err, common.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}
