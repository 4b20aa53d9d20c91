package hrm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrPaginationUndetectable reports that no known query parameter made
// the portal serve page 2. capture the querystring of a real page-2
// click in the browser's network tab and add it to the candidate list.
var ErrPaginationUndetectable = fmt.Errorf("cannot determine the pagination query parameter")

// the portal's paging parameter is undocumented and has changed across
// deployments, so it is probed per run rather than hardcoded
var pageParamCandidates = []string{
	"page", "pageNo", "page_no", "pageno", "p", "pageIndex", "page_index",
}

type ProbeOptions struct {
	ProjectId int64
	// politeness pause between probe requests
	Delay time.Duration
}

// DetectPageParam discovers which query parameter controls paging by
// requesting "page 2" under each candidate name and checking whether
// the pager actually reports page 2. a single-page result needs no
// paging at all and yields "".
func (c *Client) DetectPageParam(ctx context.Context, opts ProbeOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "DetectPageParam")
	defer span.End()

	first, err := c.FetchPage(ctx, BuildQuery(opts.ProjectId, "", 0))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page 1")
		return "", err
	}
	if first.MaxPage <= 1 {
		span.SetAttributes(attribute.Bool("single_page", true))
		return "", nil
	}

	for _, param := range pageParamCandidates {
		err := sleep(ctx, opts.Delay)
		if err != nil {
			return "", err
		}

		second, err := c.FetchPage(ctx, BuildQuery(opts.ProjectId, param, 2))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "probe fetch failed")
			return "", err
		}

		// strong signal: the pager itself says page 2
		if second.CurrentPage == 2 {
			span.SetAttributes(attribute.String("page_param", param))
			return param, nil
		}
		// weaker signal: the first row changed
		if len(second.Rows) > 0 && len(first.Rows) > 0 &&
			second.Rows[0].BadgeId != first.Rows[0].BadgeId {
			slog.DebugContext(
				ctx, "accepting page param on changed first row",
				"param", param,
			)
			span.SetAttributes(attribute.String("page_param", param))
			return param, nil
		}
	}

	span.SetStatus(codes.Error, ErrPaginationUndetectable.Error())
	return "", ErrPaginationUndetectable
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
