package query

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gridDashboard/internal/database"
	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
)

// Executor runs translated requests against the database
type Executor struct {
	db     *gorm.DB
	logger *logging.Logger
}

// NewExecutor creates an executor over db
func NewExecutor(db *gorm.DB, logger *logging.Logger) *Executor {
	return &Executor{
		db:     db,
		logger: logging.OrDiscard(logger).Named("query"),
	}
}

// Execute returns one page of rows and the total number of matching rows.
// Count and page are read in one transaction so they agree.
func (e *Executor) Execute(ctx context.Context, req Request) (models.RowPage, error) {
	start := time.Now()
	conditions := req.Conditions()
	from, to := req.Range()

	rows := []map[string]interface{}{}
	var total int64

	err := database.WithTransaction(ctx, e.db, func(tx *gorm.DB) error {
		filtered := func() *gorm.DB {
			q := tx.Table(req.Table)
			for _, cond := range conditions {
				q = q.Where(cond)
			}
			return q
		}

		if err := filtered().Count(&total).Error; err != nil {
			return err
		}
		return filtered().
			Clauses(req.OrderBy()).
			Offset(from).
			Limit(to - from + 1).
			Find(&rows).Error
	})
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"table":     req.Table,
			"start_row": req.StartRow,
			"end_row":   req.EndRow,
		}).WithError(err).Error("Grid query failed")
		return models.RowPage{}, &BackingStoreError{Err: unwrapDatabase(err)}
	}

	e.logger.WithFields(map[string]interface{}{
		"table":    req.Table,
		"from":     from,
		"to":       to,
		"filters":  len(req.Filters),
		"sorts":    len(req.Sort),
		"rows":     len(rows),
		"total":    total,
		"duration": time.Since(start).String(),
	}).Debug("Grid query")

	return models.RowPage{Rows: rows, LastRow: &total}, nil
}

// unwrapDatabase strips the transaction wrapper so the store's own message
// reaches the caller
func unwrapDatabase(err error) error {
	var dbErr *database.DatabaseError
	if errors.As(err, &dbErr) && dbErr.Err != nil {
		return dbErr.Err
	}
	return err
}
