package database

import (
	"context"
	"fmt"
	"time"
)

var exportTables = []string{"users", "rooms", "reservations", "transactions", "notifications"}

// GetTableNames returns the tables included in the audit report.
func (db *DB) GetTableNames(ctx context.Context) ([]string, error) {
	return append([]string(nil), exportTables...), nil
}

// GetTableData returns every row of table keyed by column name, plus the
// column order.
func (db *DB) GetTableData(ctx context.Context, table string) ([]map[string]any, []string, error) {
	if !isExportTable(table) {
		return nil, nil, fmt.Errorf("table %q is not exportable", table)
	}

	columns, err := db.tableColumns(ctx, table)
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var data []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			case time.Time:
				row[col] = v.Format(time.RFC3339)
			default:
				row[col] = v
			}
		}
		data = append(data, row)
	}
	return data, columns, rows.Err()
}

func (db *DB) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+table+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func isExportTable(table string) bool {
	for _, t := range exportTables {
		if t == table {
			return true
		}
	}
	return false
}

// DeleteReadNotifications removes read notifications older than olderThan.
// Unread ones are kept regardless of age.
func (db *DB) DeleteReadNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := db.ExecContext(ctx, `DELETE FROM notifications WHERE is_read = 1 AND created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
