package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autodealer/backend/internal/domain/document"
	"gorm.io/gorm"
)

const (
	upsertReturningSQL = `INSERT INTO document_sequences (prefix, year, last_value) VALUES (?, ?, 1)
ON CONFLICT (prefix, year) DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`

	// LAST_INSERT_ID(expr) stores expr for the connection, so the following
	// SELECT returns the value written by this statement on both branches.
	upsertMySQL = `INSERT INTO document_sequences (prefix, year, last_value) VALUES (?, ?, LAST_INSERT_ID(1))
ON DUPLICATE KEY UPDATE last_value = LAST_INSERT_ID(last_value + 1)`
)

// GormSequenceAllocator hands out gap-free numbers per (prefix, year) using a
// single atomic upsert on the document_sequences table. Concurrent callers are
// serialised by the row lock the upsert takes, never by an application read.
type GormSequenceAllocator struct {
	db    *gorm.DB
	clock document.Clock
}

// NewGormSequenceAllocator creates the allocator. A nil clock uses the system clock.
func NewGormSequenceAllocator(db *gorm.DB, clock document.Clock) *GormSequenceAllocator {
	if clock == nil {
		clock = document.SystemClock
	}
	return &GormSequenceAllocator{db: db, clock: clock}
}

// Next allocates the next number for prefix in the current year
func (a *GormSequenceAllocator) Next(ctx context.Context, prefix string) (document.Number, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return document.Number{}, errors.New("sequence prefix cannot be empty")
	}
	year := a.clock().Year()

	value, err := a.increment(ctx, prefix, year)
	if err != nil {
		switch {
		case isTransientConflict(err):
			return document.Number{}, fmt.Errorf("%w: %s-%d: %v", document.ErrAllocationConflict, prefix, year, err)
		case notApplied(err):
			return document.Number{}, fmt.Errorf("allocate %s-%d: %w", prefix, year, err)
		default:
			return document.Number{}, fmt.Errorf("%w: %s-%d: %v", document.ErrAllocationOutcomeUnknown, prefix, year, err)
		}
	}
	if value < 1 {
		return document.Number{}, fmt.Errorf("%w: %s-%d returned %d", document.ErrAllocationOutcomeUnknown, prefix, year, value)
	}
	return document.Number{Prefix: prefix, Year: year, Sequence: value}, nil
}

func (a *GormSequenceAllocator) increment(ctx context.Context, prefix string, year int) (int64, error) {
	var value int64
	db := a.db.WithContext(ctx)

	if db.Dialector.Name() == "mysql" {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(upsertMySQL, prefix, year).Error; err != nil {
				return err
			}
			return tx.Raw("SELECT LAST_INSERT_ID()").Scan(&value).Error
		})
		return value, err
	}

	err := db.Raw(upsertReturningSQL, prefix, year).Scan(&value).Error
	return value, err
}

// Peek returns the last allocated sequence for (prefix, year) without consuming one.
// Zero means nothing has been issued yet.
func (a *GormSequenceAllocator) Peek(ctx context.Context, prefix string, year int) (int64, error) {
	var values []int64
	err := a.db.WithContext(ctx).
		Table("document_sequences").
		Where("prefix = ? AND year = ?", strings.ToUpper(prefix), year).
		Limit(1).
		Pluck("last_value", &values).Error
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	return values[0], nil
}

var _ document.SequenceAllocator = (*GormSequenceAllocator)(nil)
