package hrm

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"hrmexport/lib/restyutil"
	"hrmexport/lib/telemetry"
)

var ErrLoginFailed = fmt.Errorf("the portal rejected the given credentials")

const maxTicketRedirects = 10

type Credentials struct {
	Username string
	Password string
}

// Login runs the CAS ticket exchange against the portal and returns a
// fresh Session. the four round trips:
//
//  1. POST the portal login entry point, it answers with a redirect to
//     the CAS login form.
//  2. GET the CAS form and lift its hidden fields (the one-time
//     execution token included).
//  3. POST credentials plus the lifted fields, CAS answers with a
//     redirect carrying the service ticket back toward the portal.
//  4. follow that redirect, the portal validates the ticket and issues
//     its session cookie.
//
// nothing of a failed attempt survives, every call starts from an
// empty cookie jar.
func Login(ctx context.Context, baseUrlStr string, creds Credentials) (Session, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	fail := func(err error) (Session, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Session{}, err
	}

	baseUrl, err := url.Parse(baseUrlStr)
	if err != nil {
		return fail(fmt.Errorf("parse base url: %w", err))
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fail(err)
	}

	client := resty.New()
	client.SetBaseURL(baseUrlStr)
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetTimeout(time.Second * 30)
	// redirects are stepped through manually, the ticket exchange
	// inspects every Location header along the way
	client.GetClient().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	telemetry.InstrumentResty(client, "scrapers/hrm/cas")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	res, err := client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"txtUsername": creds.Username,
			"txtPassword": creds.Password,
		}).
		Post(validateCredentialsPath)
	if err != nil {
		return fail(fmt.Errorf("request login entry point: %w", err))
	}

	casLocation := res.Header().Get("Location")
	if casLocation == "" {
		// some deployments validate credentials directly without
		// bouncing through CAS
		session := sessionFromJar(jar, baseUrl)
		if session.Valid() {
			return session, nil
		}
		return fail(fmt.Errorf("%w: login entry point did not redirect to CAS", ErrLoginFailed))
	}
	casUrl, err := baseUrl.Parse(casLocation)
	if err != nil {
		return fail(fmt.Errorf("parse CAS redirect: %w", err))
	}

	res, err = client.R().
		SetContext(ctx).
		Get(casUrl.String())
	if err != nil {
		return fail(fmt.Errorf("fetch CAS login form: %w", err))
	}
	action, fields, err := parseCasForm(casUrl, res.Body())
	if err != nil {
		return fail(err)
	}
	fields["username"] = creds.Username
	fields["password"] = creds.Password

	res, err = client.R().
		SetContext(ctx).
		SetFormData(fields).
		Post(action.String())
	if err != nil {
		return fail(fmt.Errorf("submit credentials to CAS: %w", err))
	}
	ticketLocation := res.Header().Get("Location")
	if ticketLocation == "" {
		// CAS re-renders its form instead of redirecting forward
		return fail(ErrLoginFailed)
	}
	ticketUrl, err := casUrl.Parse(ticketLocation)
	if err != nil {
		return fail(fmt.Errorf("parse service ticket redirect: %w", err))
	}
	if ticketUrl.Query().Get("ticket") == "" {
		// bounced back toward the CAS form rather than forward to the
		// portal with a service ticket
		return fail(ErrLoginFailed)
	}

	err = followRedirects(ctx, client, ticketUrl)
	if err != nil {
		return fail(fmt.Errorf("validate service ticket: %w", err))
	}

	session := sessionFromJar(jar, baseUrl)
	if !session.Valid() {
		return fail(fmt.Errorf("%w: no %s cookie was issued", ErrLoginFailed, SessionCookie))
	}
	return session, nil
}

func parseCasForm(formUrl *url.URL, body []byte) (*url.URL, map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse CAS login form: %w", err)
	}

	form := doc.Find("form#fm1").First()
	if form.Length() == 0 {
		form = doc.Find("form").First()
	}
	if form.Length() == 0 {
		return nil, nil, fmt.Errorf("no login form on the CAS page")
	}

	fields := map[string]string{}
	form.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		fields[input.AttrOr("name", "")] = input.AttrOr("value", "")
	})

	action := formUrl
	actionAttr := strings.TrimSpace(form.AttrOr("action", ""))
	if actionAttr != "" {
		action, err = formUrl.Parse(actionAttr)
		if err != nil {
			return nil, nil, fmt.Errorf("parse CAS form action: %w", err)
		}
	}
	return action, fields, nil
}

func followRedirects(ctx context.Context, client *resty.Client, start *url.URL) error {
	current := start
	for i := 0; i < maxTicketRedirects; i++ {
		res, err := client.R().
			SetContext(ctx).
			Get(current.String())
		if err != nil {
			return err
		}
		location := res.Header().Get("Location")
		if location == "" {
			return nil
		}
		current, err = current.Parse(location)
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("more than %d redirects", maxTicketRedirects)
}
