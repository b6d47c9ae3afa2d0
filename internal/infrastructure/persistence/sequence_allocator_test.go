package persistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/autodealer/backend/internal/domain/document"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormSequenceAllocator_Sequential(t *testing.T) {
	db := newTestGorm(t)
	alloc := NewGormSequenceAllocator(db, fixedClock(2025))
	ctx := t.Context()

	for want := int64(1); want <= 3; want++ {
		n, err := alloc.Next(ctx, "FV")
		require.NoError(t, err)
		assert.Equal(t, document.Number{Prefix: "FV", Year: 2025, Sequence: want}, n)
	}

	last, err := alloc.Peek(ctx, "FV", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)
}

func TestGormSequenceAllocator_PrefixesAreIndependent(t *testing.T) {
	db := newTestGorm(t)
	alloc := NewGormSequenceAllocator(db, fixedClock(2025))
	ctx := t.Context()

	_, err := alloc.Next(ctx, "FV")
	require.NoError(t, err)
	_, err = alloc.Next(ctx, "FV")
	require.NoError(t, err)

	n, err := alloc.Next(ctx, "bc")
	require.NoError(t, err)
	assert.Equal(t, "BC", n.Prefix)
	assert.Equal(t, int64(1), n.Sequence)
}

func TestGormSequenceAllocator_YearRollover(t *testing.T) {
	db := newTestGorm(t)
	ctx := t.Context()

	old := NewGormSequenceAllocator(db, fixedClock(2025))
	for i := 0; i < 4; i++ {
		_, err := old.Next(ctx, "FM")
		require.NoError(t, err)
	}

	n, err := NewGormSequenceAllocator(db, fixedClock(2026)).Next(ctx, "FM")
	require.NoError(t, err)
	assert.Equal(t, 2026, n.Year)
	assert.Equal(t, int64(1), n.Sequence)

	last2025, err := old.Peek(ctx, "FM", 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(4), last2025)
}

func TestGormSequenceAllocator_PeekEmpty(t *testing.T) {
	alloc := NewGormSequenceAllocator(newTestGorm(t), fixedClock(2025))
	last, err := alloc.Peek(t.Context(), "DA", 2025)
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestGormSequenceAllocator_EmptyPrefix(t *testing.T) {
	alloc := NewGormSequenceAllocator(newTestGorm(t), fixedClock(2025))
	_, err := alloc.Next(t.Context(), "  ")
	require.Error(t, err)
}

func TestGormSequenceAllocator_ConcurrentCallsAreDistinctAndGapFree(t *testing.T) {
	db := newTestGorm(t)
	alloc := NewGormSequenceAllocator(db, fixedClock(2025))
	ctx := t.Context()

	const workers = 40
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs []int64
		errs []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.Next(ctx, "FV")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			seqs = append(seqs, n.Sequence)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, seqs, workers)
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for i, s := range seqs {
		assert.Equal(t, int64(i+1), s)
	}
}

// ==================== Dialect statements ====================

func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormSequenceAllocator_PostgresUpsert(t *testing.T) {
	db, mock := newPostgresMock(t)

	mock.ExpectQuery(`INSERT INTO document_sequences .* ON CONFLICT \(prefix, year\) DO UPDATE .* RETURNING last_value`).
		WithArgs("FV", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(12)))

	n, err := NewGormSequenceAllocator(db, fixedClock(2025)).Next(t.Context(), "FV")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n.Sequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSequenceAllocator_SerializationFailureIsConflict(t *testing.T) {
	db, mock := newPostgresMock(t)

	mock.ExpectQuery(`INSERT INTO document_sequences`).
		WithArgs("FV", 2025).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})

	_, err := NewGormSequenceAllocator(db, fixedClock(2025)).Next(t.Context(), "FV")
	require.Error(t, err)
	assert.True(t, errors.Is(err, document.ErrAllocationConflict))
}

func TestGormSequenceAllocator_RejectedStatementIsPlainFailure(t *testing.T) {
	db, mock := newPostgresMock(t)

	mock.ExpectQuery(`INSERT INTO document_sequences`).
		WithArgs("FV", 2025).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "document_sequences" does not exist`})

	_, err := NewGormSequenceAllocator(db, fixedClock(2025)).Next(t.Context(), "FV")
	require.Error(t, err)
	assert.False(t, errors.Is(err, document.ErrAllocationConflict))
	assert.False(t, errors.Is(err, document.ErrAllocationOutcomeUnknown))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestGormSequenceAllocator_LostUpsertIsOutcomeUnknown(t *testing.T) {
	for name, cause := range map[string]error{
		"cancelled after sending": context.Canceled,
		"deadline exceeded":       context.DeadlineExceeded,
		"connection dropped":      errors.New("unexpected EOF"),
	} {
		t.Run(name, func(t *testing.T) {
			db, mock := newPostgresMock(t)

			mock.ExpectQuery(`INSERT INTO document_sequences`).
				WithArgs("FV", 2025).
				WillReturnError(cause)

			_, err := NewGormSequenceAllocator(db, fixedClock(2025)).Next(t.Context(), "FV")
			require.Error(t, err)
			assert.True(t, errors.Is(err, document.ErrAllocationOutcomeUnknown))
			assert.False(t, errors.Is(err, document.ErrAllocationConflict))
		})
	}
}

func TestNotApplied(t *testing.T) {
	assert.True(t, notApplied(&pgconn.PgError{Code: "23502"}))
	assert.True(t, notApplied(fmt.Errorf("exec: %w", driver.ErrBadConn)))
	assert.False(t, notApplied(context.Canceled))
	assert.False(t, notApplied(errors.New("read tcp: connection reset by peer")))
	assert.False(t, notApplied(nil))
}

func TestGormSequenceAllocator_MySQLUsesLastInsertID(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: mockDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO document_sequences .* ON DUPLICATE KEY UPDATE last_value = LAST_INSERT_ID\(last_value \+ 1\)`).
		WithArgs("BC", 2025).
		WillReturnResult(sqlmock.NewResult(5, 2))
	mock.ExpectQuery(`SELECT LAST_INSERT_ID\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"LAST_INSERT_ID()"}).AddRow(int64(5)))
	mock.ExpectCommit()

	n, err := NewGormSequenceAllocator(db, fixedClock(2025)).Next(t.Context(), "BC")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.Sequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}
