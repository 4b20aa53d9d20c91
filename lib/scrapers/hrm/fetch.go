package hrm

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrSessionExpired reports that the portal answered a fetch with its
// CAS login page instead of results. callers recover by replacing the
// session, not by retrying blindly.
var ErrSessionExpired = fmt.Errorf("the portal session has expired")

// FetchPage requests one page of the contact search and parses it.
// recently fetched pages are served from the short-lived cache so the
// pagination probe and the crawl don't hit page 1 twice.
func (c *Client) FetchPage(ctx context.Context, query url.Values) (PageParse, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()

	key := query.Encode()
	span.SetAttributes(attribute.String("query", key))

	if cached, hit := c.pages.Get(key); hit {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(contactSearchPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch contact page")
		return PageParse{}, fmt.Errorf("fetch contact page: %w", err)
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("unexpected status %d for %s", res.StatusCode(), res.Request.URL)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PageParse{}, err
	}

	page, err := ParsePage(ctx, c.baseUrl, res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PageParse{}, err
	}

	c.pages.Add(key, page)
	return page, nil
}
