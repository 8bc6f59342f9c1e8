package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"math-log-server/models"
)

// TimestampLayout is the ISO-8601 local layout stored in request_logs.timestamp.
// The fixed microsecond width keeps text order equal to time order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

const requestLogsTable = "request_logs"

type DBService struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
}

// NewDBService opens the request log database. driver is "sqlite3" (dsn is a
// file path) or "postgres" (dsn is a lib/pq connection string).
func NewDBService(driver, dsn string) (*DBService, error) {
	var builder sq.StatementBuilderType
	switch driver {
	case "sqlite3":
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	case "postgres":
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite allows one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("execute %q: %w", pragma, err)
			}
		}
	}

	return &DBService{db: db, driver: driver, builder: builder}, nil
}

func (s *DBService) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *DBService) Ping(ctx context.Context) error {
	return capture(ctx, "DB.Ping", func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

// InitSchema creates request_logs if it doesn't exist. Safe to call repeatedly.
func (s *DBService) InitSchema(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == "postgres" {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS request_logs (
		%s,
		operation TEXT NOT NULL,
		input_data TEXT NOT NULL,
		result TEXT NOT NULL,
		timestamp TEXT NOT NULL
	)`, idColumn),
		`CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp ON request_logs(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_operation ON request_logs(operation)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// InsertLog appends a record and returns its id
func (s *DBService) InsertLog(ctx context.Context, operation, inputData, result string, timestamp time.Time) (int64, error) {
	var id int64
	err := capture(ctx, "DB.InsertLog", func(ctx context.Context) error {
		query, args, err := s.builder.
			Insert(requestLogsTable).
			Columns("operation", "input_data", "result", "timestamp").
			Values(operation, inputData, result, timestamp.Format(TimestampLayout)).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		return s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("insert request log: %w", err)
	}
	return id, nil
}

// ListLogs returns records newest first, restricted to one operation when
// operation is not empty. Records sharing a timestamp come back in reverse
// insertion order.
func (s *DBService) ListLogs(ctx context.Context, operation string) ([]models.OperationLog, error) {
	logs := []models.OperationLog{}
	err := capture(ctx, "DB.ListLogs", func(ctx context.Context) error {
		q := s.builder.
			Select("id", "operation", "input_data", "result", "timestamp").
			From(requestLogsTable).
			OrderBy("timestamp DESC", "id DESC")
		if operation != "" {
			q = q.Where(sq.Eq{"operation": operation})
		}

		query, args, err := q.ToSql()
		if err != nil {
			return err
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var entry models.OperationLog
			if err := rows.Scan(&entry.ID, &entry.Operation, &entry.InputData, &entry.Result, &entry.Timestamp); err != nil {
				return err
			}
			logs = append(logs, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list request logs: %w", err)
	}
	return logs, nil
}
