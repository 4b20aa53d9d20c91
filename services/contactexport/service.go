package contactexport

import (
	"context"
	"errors"
	"fmt"
	"hrmexport/lib/scrapers/hrm"
	"hrmexport/lib/tabular"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/contactexport")

type Options struct {
	// full portal base url, see hrm.BaseURL
	BaseUrl     string
	Credentials hrm.Credentials
	// path of the cached session file, "" disables caching
	SessionFile string
	ProjectId   int64
	// politeness pause between page requests, it plays no
	// correctness role
	Delay time.Duration
	// authenticate even when a cached session exists
	ForceLogin bool
	// explicit session cookie, skips both the session file and CAS
	SessionId string
}

// Exporter walks every page of the contact search for one project and
// emits the merged result set as a table.
type Exporter struct {
	opts   Options
	client *hrm.Client
}

func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

type Result struct {
	Rows    int
	MaxPage int
}

func (e *Exporter) Run(ctx context.Context, out tabular.Writer) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.Int64("project_id", e.opts.ProjectId))

	fail := func(err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	err := e.bindSession(ctx)
	if err != nil {
		return fail(err)
	}

	pageParam, err := e.probePageParam(ctx)
	if err != nil {
		return fail(err)
	}
	slog.InfoContext(ctx, "discovered paging", "param", pageParam)

	firstPage := 0
	if pageParam != "" {
		firstPage = 1
	}
	first, err := e.fetchPage(ctx, hrm.BuildQuery(e.opts.ProjectId, pageParam, firstPage))
	if err != nil {
		return fail(err)
	}

	merged := newMergeSet()
	merged.addAll(first.Rows)
	maxPage := first.MaxPage
	if first.TotalText != "" {
		slog.InfoContext(ctx, "paging label", "desc", first.TotalText)
	}

	if pageParam != "" {
		for page := 2; page <= maxPage; page++ {
			err := sleep(ctx, e.opts.Delay)
			if err != nil {
				return fail(err)
			}

			parsed, err := e.fetchPage(ctx, hrm.BuildQuery(e.opts.ProjectId, pageParam, page))
			if err != nil {
				return fail(err)
			}
			merged.addAll(parsed.Rows)

			// the result set can grow or shrink while we walk it
			if parsed.MaxPage > 0 && parsed.MaxPage != maxPage {
				slog.InfoContext(
					ctx, "max page changed mid-run",
					"old", maxPage, "new", parsed.MaxPage,
				)
				maxPage = parsed.MaxPage
			}
		}
	}

	contacts := merged.ordered()
	if len(contacts) == 0 {
		return fail(fmt.Errorf("no rows extracted, most likely the session expired or access was denied"))
	}

	err = out.Write(ctx, buildTable(contacts))
	if err != nil {
		return fail(fmt.Errorf("write output table: %w", err))
	}

	span.SetAttributes(attribute.Int("rows", len(contacts)))
	return Result{Rows: len(contacts), MaxPage: maxPage}, nil
}

func (e *Exporter) bindSession(ctx context.Context) error {
	var session hrm.Session

	switch {
	case e.opts.SessionId != "":
		slog.InfoContext(ctx, "using explicitly provided session cookie")
		session = hrm.SessionFromId(e.opts.SessionId)
	case !e.opts.ForceLogin && e.opts.SessionFile != "":
		cached, ok := hrm.LoadSession(e.opts.SessionFile)
		if ok {
			slog.InfoContext(ctx, "using saved session", "file", e.opts.SessionFile)
			session = cached
		}
	}

	if !session.Valid() {
		fresh, err := e.login(ctx)
		if err != nil {
			return err
		}
		session = fresh
	}

	client, err := hrm.NewClient(hrm.ClientOptions{
		BaseUrl: e.opts.BaseUrl,
		Session: session,
	})
	if err != nil {
		return err
	}
	e.client = client
	return nil
}

func (e *Exporter) login(ctx context.Context) (hrm.Session, error) {
	slog.InfoContext(ctx, "logging in via CAS", "username", e.opts.Credentials.Username)
	session, err := hrm.Login(ctx, e.opts.BaseUrl, e.opts.Credentials)
	if err != nil {
		return hrm.Session{}, err
	}
	if e.opts.SessionFile != "" {
		err := hrm.SaveSession(e.opts.SessionFile, session)
		if err != nil {
			slog.WarnContext(ctx, "failed to save session", "err", err)
		}
	}
	return session, nil
}

// refreshSession replaces the expired session with a fresh one and
// rebinds the client to it. the old Session value is simply dropped.
func (e *Exporter) refreshSession(ctx context.Context) error {
	slog.WarnContext(ctx, "session expired, authenticating again")
	session, err := e.login(ctx)
	if err != nil {
		return err
	}
	client, err := e.client.WithSession(session)
	if err != nil {
		return err
	}
	e.client = client
	return nil
}

// fetchPage recovers from an expired session exactly once: the fetch
// is retried after re-authenticating, and a second consecutive expiry
// propagates.
func (e *Exporter) fetchPage(ctx context.Context, query url.Values) (hrm.PageParse, error) {
	parsed, err := e.client.FetchPage(ctx, query)
	if !errors.Is(err, hrm.ErrSessionExpired) {
		return parsed, err
	}

	err = e.refreshSession(ctx)
	if err != nil {
		return hrm.PageParse{}, err
	}
	return e.client.FetchPage(ctx, query)
}

// probePageParam applies the same single-recovery policy to the
// pagination probe as fetchPage does to fetches.
func (e *Exporter) probePageParam(ctx context.Context) (string, error) {
	opts := hrm.ProbeOptions{ProjectId: e.opts.ProjectId, Delay: e.opts.Delay}

	param, err := e.client.DetectPageParam(ctx, opts)
	if !errors.Is(err, hrm.ErrSessionExpired) {
		return param, err
	}

	err = e.refreshSession(ctx)
	if err != nil {
		return "", err
	}
	return e.client.DetectPageParam(ctx, opts)
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
