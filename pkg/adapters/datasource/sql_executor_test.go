package datasource

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMockExecutor(t *testing.T, timeout time.Duration) (*SQLQueryExecutor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return NewSQLQueryExecutor(db, "hana", timeout, zaptest.NewLogger(t)), mock
}

func TestSQLQueryExecutor_Query(t *testing.T) {
	exec, mock := newMockExecutor(t, time.Second)
	defer exec.Close()

	query := `SELECT "CardCode", "CardName", "Balance" FROM "SBODEMOUS"."OCRD"`
	mock.ExpectQuery(query).WillReturnRows(
		sqlmock.NewRows([]string{"CardCode", "CardName", "Balance"}).
			AddRow("C20000", []byte("Norm Thompson"), 1250.5).
			AddRow("C30000", []byte("Microchips"), nil),
	)

	result, err := exec.Query(context.Background(), query, 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"CardCode", "CardName", "Balance"}, result.ColumnNames())
	assert.Equal(t, 2, result.RowCount)
	assert.False(t, result.Truncated)

	name, ok := result.Rows[0].Get("CardName")
	require.True(t, ok)
	assert.Equal(t, "Norm Thompson", name, "[]byte values are returned as strings")

	balance, _ := result.Rows[1].Get("Balance")
	assert.Nil(t, balance)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLQueryExecutor_EmptyResult(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)
	defer exec.Close()

	mock.ExpectQuery("SELECT 1 FROM DUMMY WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"X"}))

	result, err := exec.Query(context.Background(), "SELECT 1 FROM DUMMY WHERE 1 = 0", 10)
	require.NoError(t, err)
	assert.NotNil(t, result.Rows, "empty result is an empty slice, not nil")
	assert.Empty(t, result.Rows)
	assert.Zero(t, result.RowCount)
}

func TestSQLQueryExecutor_TruncatesAtLimit(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)
	defer exec.Close()

	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 5; i++ {
		rows.AddRow(int64(i))
	}
	mock.ExpectQuery("SELECT n FROM t").WillReturnRows(rows)

	result, err := exec.Query(context.Background(), "SELECT n FROM t", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowCount)
	assert.True(t, result.Truncated)
}

func TestSQLQueryExecutor_DuplicateColumns(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)
	defer exec.Close()

	mock.ExpectQuery("SELECT a.x, b.x FROM a, b").WillReturnRows(
		sqlmock.NewRows([]string{"x", "x"}).AddRow(int64(1), int64(2)))

	result, err := exec.Query(context.Background(), "SELECT a.x, b.x FROM a, b", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x_2"}, result.ColumnNames())
	assert.Equal(t, map[string]any{"x": int64(1), "x_2": int64(2)}, result.Rows[0].Map())
}

func TestSQLQueryExecutor_QueryError(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)
	defer exec.Close()

	mock.ExpectQuery(`SELECT "DocTotl" FROM "OINV"`).
		WillReturnError(errors.New(`SQL error 260: invalid column name: DocTotl`))

	result, err := exec.Query(context.Background(), `SELECT "DocTotl" FROM "OINV"`, 10)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestSQLQueryExecutor_RowError(t *testing.T) {
	exec, mock := newMockExecutor(t, 0)
	defer exec.Close()

	mock.ExpectQuery("SELECT n FROM t").WillReturnRows(
		sqlmock.NewRows([]string{"n"}).
			AddRow(int64(1)).
			AddRow(int64(2)).
			RowError(1, errors.New("connection reset")))

	_, err := exec.Query(context.Background(), "SELECT n FROM t", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSQLQueryExecutor_Timeout(t *testing.T) {
	exec, mock := newMockExecutor(t, 20*time.Millisecond)
	defer exec.Close()

	mock.ExpectQuery("SELECT slow FROM t").
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"slow"}).AddRow(int64(1)))

	_, err := exec.Query(context.Background(), "SELECT slow FROM t", 10)
	assert.Error(t, err)
}

func TestSQLQueryExecutor_TestConnectionAndClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	exec := NewSQLQueryExecutor(db, "mssql", 0, nil)

	mock.ExpectPing()
	assert.NoError(t, exec.TestConnection(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("login failed"))
	err = exec.TestConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mssql")

	mock.ExpectClose()
	assert.NoError(t, exec.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "bytes", in: []byte("Acme"), want: "Acme"},
		{name: "binary bytes", in: []byte{0xff, 0x00}, want: "ff00"},
		{name: "rational decimal", in: big.NewRat(12345, 100), want: 123.45},
		{name: "nil rational", in: (*big.Rat)(nil), want: nil},
		{name: "big int", in: big.NewInt(42), want: int64(42)},
		{name: "int64", in: int64(7), want: int64(7)},
		{name: "float", in: 1.5, want: 1.5},
		{name: "NaN", in: math.NaN(), want: nil},
		{name: "positive infinity", in: math.Inf(1), want: nil},
		{name: "negative infinity float32", in: float32(math.Inf(-1)), want: nil},
		{name: "infinite big float", in: new(big.Float).SetInf(false), want: nil},
		{name: "bool", in: true, want: true},
		{name: "time", in: ts, want: ts},
		{name: "stringer", in: time.Second, want: "1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeValue(tt.in))
		})
	}
}

func TestUniqueColumnNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, UniqueColumnNames([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "a_2", "a_3"}, UniqueColumnNames([]string{"a", "a", "a"}))
	assert.Equal(t, []string{"a_2", "a", "a_2_2"}, UniqueColumnNames([]string{"a_2", "a", "a_2"}))
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, MaxQueryLimit, EffectiveLimit(0))
	assert.Equal(t, MaxQueryLimit, EffectiveLimit(-5))
	assert.Equal(t, 50, EffectiveLimit(50))
	assert.Equal(t, MaxQueryLimit, EffectiveLimit(MaxQueryLimit+1))
}
