package exportlog

import (
	"context"
	"database/sql"
	"hrmexport/services/exportlog/db"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/exportlog")

// Service keeps a local record of past export runs.
type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

type Run struct {
	StartedAt  time.Time
	ProjectId  int64
	RowCount   int64
	MaxPage    int64
	OutputPath string
}

func (s Service) Record(ctx context.Context, run Run) error {
	ctx, span := tracer.Start(ctx, "Record")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("project_id", run.ProjectId),
		attribute.Int64("row_count", run.RowCount),
	)

	err := s.qry.CreateExportRun(ctx, db.CreateExportRunParams{
		StartedAt:  run.StartedAt.Unix(),
		ProjectID:  run.ProjectId,
		RowCount:   run.RowCount,
		MaxPage:    run.MaxPage,
		OutputPath: run.OutputPath,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Recent returns up to `limit` runs, newest first.
func (s Service) Recent(ctx context.Context, limit int64) ([]Run, error) {
	ctx, span := tracer.Start(ctx, "Recent")
	defer span.End()

	rows, err := s.qry.ListExportRuns(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, Run{
			StartedAt:  time.Unix(row.StartedAt, 0),
			ProjectId:  row.ProjectID,
			RowCount:   row.RowCount,
			MaxPage:    row.MaxPage,
			OutputPath: row.OutputPath,
		})
	}
	return runs, nil
}
