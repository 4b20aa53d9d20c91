package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ExportRun struct {
	ID         int64
	StartedAt  int64
	ProjectID  int64
	RowCount   int64
	MaxPage    int64
	OutputPath string
}

const createExportRun = `
insert into export_runs (started_at, project_id, row_count, max_page, output_path)
values (?, ?, ?, ?, ?)
`

type CreateExportRunParams struct {
	StartedAt  int64
	ProjectID  int64
	RowCount   int64
	MaxPage    int64
	OutputPath string
}

func (q *Queries) CreateExportRun(ctx context.Context, arg CreateExportRunParams) error {
	_, err := q.db.ExecContext(ctx, createExportRun,
		arg.StartedAt,
		arg.ProjectID,
		arg.RowCount,
		arg.MaxPage,
		arg.OutputPath,
	)
	return err
}

const listExportRuns = `
select id, started_at, project_id, row_count, max_page, output_path
from export_runs
order by started_at desc
limit ?
`

func (q *Queries) ListExportRuns(ctx context.Context, limit int64) ([]ExportRun, error) {
	rows, err := q.db.QueryContext(ctx, listExportRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ExportRun
	for rows.Next() {
		var i ExportRun
		err := rows.Scan(
			&i.ID,
			&i.StartedAt,
			&i.ProjectID,
			&i.RowCount,
			&i.MaxPage,
			&i.OutputPath,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
