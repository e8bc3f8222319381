package postgres

import (
	"fmt"

	"github.com/revlens-lab/project-revlens/internal/core/storage"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSalesRow scans a database row into a SalesRecord.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanSalesRow(row scanner) (*storage.SalesRecord, error) {
	var record storage.SalesRecord

	err := row.Scan(
		&record.ID,
		&record.Date,
		&record.Revenue,
		&record.AdSpend,
		&record.StoreID,
		&record.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales row: %w", err)
	}

	return &record, nil
}
