// Package pgstore implementa tablestore.Store sobre tabelas Postgres.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/pkg/utils"
)

const (
	idColumn           = "id"
	uniqueViolationErr = "23505"
)

type store struct {
	conn *postgres.Connection
}

func NewStore(conn *postgres.Connection) tablestore.Store {
	return &store{
		conn: conn,
	}
}

func checkTable(table string) error {
	for _, known := range tablestore.Tables {
		if known == table {
			return nil
		}
	}
	return errors.Wrapf(tablestore.ErrUnknownTable, "postgres: %s", table)
}

func (s *store) List(ctx context.Context, table string, query tablestore.Query) ([]tablestore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	columns := []string{"*"}
	if len(query.Fields) > 0 {
		columns = append([]string{idColumn}, query.Fields...)
	}

	builder := squirrel.
		Select(columns...).
		From(table).
		PlaceholderFormat(squirrel.Dollar)

	for _, cond := range query.Where {
		builder = builder.Where(toSqlizer(cond))
	}

	if query.Sort != "" {
		if strings.HasPrefix(query.Sort, "-") {
			builder = builder.OrderBy(strings.TrimPrefix(query.Sort, "-") + " DESC")
		} else {
			builder = builder.OrderBy(query.Sort + " ASC")
		}
	}

	if query.Limit > 0 {
		builder = builder.Limit(uint64(query.Limit))
	}

	listSQL, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "postgres: erro ao listar %s", table)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]tablestore.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]tablestore.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		rec := tablestore.Record{Fields: make(map[string]any, len(columns))}
		for i, column := range columns {
			if column == idColumn {
				rec.ID = tablestore.AsString(values[i])
				continue
			}
			rec.Fields[column] = tablestore.Normalize(values[i])
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *store) Insert(ctx context.Context, table string, records []tablestore.Record) ([]tablestore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []tablestore.Record{}, nil
	}

	columns := unionColumns(records)

	query := squirrel.StatementBuilder.
		Insert(table).
		Columns(append([]string{idColumn}, columns...)...).
		Suffix("RETURNING " + idColumn).
		PlaceholderFormat(squirrel.Dollar)

	created := make([]tablestore.Record, 0, len(records))
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			generated, err := utils.GenerateRecordID()
			if err != nil {
				return nil, err
			}
			id = generated
		}

		values := make([]any, 0, len(columns)+1)
		values = append(values, id)
		for _, column := range columns {
			values = append(values, rec.Fields[column])
		}
		query = query.Values(values...)

		created = append(created, tablestore.Record{ID: id, Fields: rec.Fields})
	}

	insertSQL, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, insertSQL, args...)
	if err != nil {
		return nil, translateError(err, table)
	}
	defer rows.Close()

	for rows.Next() {
		// ids já foram gerados antes do INSERT; só drenamos o RETURNING
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, table)
	}

	return created, nil
}

func (s *store) Update(ctx context.Context, table string, records []tablestore.Record) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	return s.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			if err := updateRecord(ctx, tx, table, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func updateRecord(ctx context.Context, q postgres.Queryer, table string, rec tablestore.Record) error {
	if len(rec.Fields) == 0 {
		return nil
	}

	updateSQL, args, err := squirrel.
		Update(table).
		SetMap(rec.Fields).
		Where(squirrel.Eq{idColumn: rec.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := q.ExecContext(ctx, updateSQL, args...)
	if err != nil {
		return translateError(err, table)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return errors.Wrapf(tablestore.ErrNotFound, "postgres: %s/%s", table, rec.ID)
	}
	return nil
}

func (s *store) Delete(ctx context.Context, table string, ids []string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	deleteSQL, args, err := squirrel.
		Delete(table).
		Where(squirrel.Eq{idColumn: ids}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.conn.ExecContext(ctx, deleteSQL, args...); err != nil {
		return translateError(err, table)
	}

	return nil
}

func toSqlizer(cond tablestore.Condition) squirrel.Sqlizer {
	switch cond.Op {
	case tablestore.OpIn:
		return squirrel.Eq{cond.Field: cond.Values}
	case tablestore.OpLt:
		return squirrel.Lt{cond.Field: cond.Value}
	case tablestore.OpGte:
		return squirrel.GtOrEq{cond.Field: cond.Value}
	case tablestore.OpLte:
		return squirrel.LtOrEq{cond.Field: cond.Value}
	default:
		return squirrel.Eq{cond.Field: cond.Value}
	}
}

func translateError(err error, table string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == uniqueViolationErr {
			return errors.Wrapf(tablestore.ErrConflict, "postgres: %s (%s)", table, pqErr.Constraint)
		}
		return fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
	}
	return errors.Wrapf(err, "postgres: %s", table)
}

func unionColumns(records []tablestore.Record) []string {
	set := make(map[string]struct{})
	for _, rec := range records {
		for column := range rec.Fields {
			if column == idColumn {
				continue
			}
			set[column] = struct{}{}
		}
	}

	columns := make([]string, 0, len(set))
	for column := range set {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
