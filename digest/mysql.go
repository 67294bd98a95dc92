package digest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kaz/kaltstart/aggregate"
	"github.com/vmihailenco/msgpack"
)

type (
	// MySQLStore keeps collected records so runs from different days can be
	// aggregated together.
	MySQLStore struct {
		db *sql.DB
	}

	mysqlSource struct {
		ctx    context.Context
		cancel context.CancelFunc
		store  *MySQLStore
		window aggregate.Window
		err    error
		done   chan struct{}
	}
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS init_durations (
		function_name VARCHAR(170) NOT NULL,
		ts BIGINT NOT NULL,
		init_ms DOUBLE NOT NULL,
		INDEX (ts)
	)`,
	`CREATE TABLE IF NOT EXISTS module_timings (
		function_name VARCHAR(170) NOT NULL,
		ts BIGINT NOT NULL,
		timings BLOB NOT NULL,
		INDEX (ts)
	)`,
}

func OpenMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql.ParseDSN failed: %w", err)
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql.NewConnector failed: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Minute)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("db.ExecContext failed: %w", err)
		}
	}
	return &MySQLStore{db}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Save inserts all records in one transaction.
func (s *MySQLStore) Save(ctx context.Context, records *aggregate.Records) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTx failed: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records.Reports {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO init_durations (function_name, ts, init_ms) VALUES (?, ?, ?)",
			r.Function, r.Timestamp.UnixMicro(), r.InitDurationMs,
		); err != nil {
			return fmt.Errorf("tx.ExecContext failed: %w", err)
		}
	}
	for _, r := range records.Imports {
		timings, err := msgpack.Marshal(r.Timings)
		if err != nil {
			return fmt.Errorf("msgpack.Marshal failed: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO module_timings (function_name, ts, timings) VALUES (?, ?, ?)",
			r.Function, r.Timestamp.UnixMicro(), timings,
		); err != nil {
			return fmt.Errorf("tx.ExecContext failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit failed: %w", err)
	}
	return nil
}

// Source streams the stored records inside window. Cancelling ctx or closing
// the source stops the queries.
func (s *MySQLStore) Source(ctx context.Context, window aggregate.Window) RecordSource {
	ctx, cancel := context.WithCancel(ctx)
	return &mysqlSource{ctx: ctx, cancel: cancel, store: s, window: window}
}

func (ms *mysqlSource) Records() chan interface{} {
	ms.done = make(chan struct{})

	ch := make(chan interface{})
	go func() {
		defer close(ms.done)
		defer close(ch)

		if err := ms.reports(ch); err != nil {
			ms.err = fmt.Errorf("reports failed: %w", err)
			return
		}
		if err := ms.imports(ch); err != nil {
			ms.err = fmt.Errorf("imports failed: %w", err)
		}
	}()
	return ch
}

func (ms *mysqlSource) Close() error {
	ms.cancel()
	if ms.done != nil {
		<-ms.done
	}
	return ms.err
}

func (ms *mysqlSource) bounds() (int64, int64) {
	start, end := int64(0), int64(1<<62)
	if !ms.window.Start.IsZero() {
		start = ms.window.Start.UnixMicro()
	}
	if !ms.window.End.IsZero() {
		end = ms.window.End.UnixMicro()
	}
	return start, end
}

func (ms *mysqlSource) reports(ch chan interface{}) error {
	start, end := ms.bounds()
	rows, err := ms.store.db.QueryContext(ms.ctx,
		"SELECT function_name, ts, init_ms FROM init_durations WHERE ts >= ? AND ts < ? ORDER BY ts",
		start, end,
	)
	if err != nil {
		return fmt.Errorf("db.QueryContext failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &aggregate.ReportRecord{}
		var ts int64
		if err := rows.Scan(&r.Function, &ts, &r.InitDurationMs); err != nil {
			return fmt.Errorf("rows.Scan failed: %w", err)
		}
		r.Timestamp = time.UnixMicro(ts).UTC()
		if err := send(ms.ctx, ch, r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (ms *mysqlSource) imports(ch chan interface{}) error {
	start, end := ms.bounds()
	rows, err := ms.store.db.QueryContext(ms.ctx,
		"SELECT function_name, ts, timings FROM module_timings WHERE ts >= ? AND ts < ? ORDER BY ts",
		start, end,
	)
	if err != nil {
		return fmt.Errorf("db.QueryContext failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &aggregate.ImportRecord{}
		var ts int64
		var raw []byte
		if err := rows.Scan(&r.Function, &ts, &raw); err != nil {
			return fmt.Errorf("rows.Scan failed: %w", err)
		}
		if err := msgpack.Unmarshal(raw, &r.Timings); err != nil {
			return fmt.Errorf("msgpack.Unmarshal failed: %w", err)
		}
		r.Timestamp = time.UnixMicro(ts).UTC()
		if err := send(ms.ctx, ch, r); err != nil {
			return err
		}
	}
	return rows.Err()
}
