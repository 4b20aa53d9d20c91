package hrm

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"hrmexport/lib/restyutil"
	"hrmexport/lib/telemetry"
)

var tracer = otel.Tracer("scrapers/hrm")

const (
	contactSearchPath       = "/index.php/pim/viewContactSearch"
	validateCredentialsPath = "/index.php/auth/validateCredentials"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

// BaseURL expands the various accepted domain spellings into a full
// portal base url:
//
//	"trna"            -> "https://hrm.trna.com.vn"
//	"trna.com.vn"     -> "https://hrm.trna.com.vn"
//	"hrm.trna.com.vn" -> "https://hrm.trna.com.vn"
func BaseURL(domain string) string {
	if strings.Contains(domain, "://") {
		return domain
	}
	if strings.HasPrefix(domain, "hrm.") {
		return "https://" + domain
	}
	if !strings.HasSuffix(domain, ".com.vn") {
		return "https://hrm." + domain + ".com.vn"
	}
	return "https://hrm." + domain
}

// Client makes authenticated requests against the contact search
// endpoint. it is bound to one Session; a fresh Session gets a fresh
// Client via WithSession.
type Client struct {
	baseUrl *url.URL
	session Session
	http    *resty.Client

	// fetched pages keyed by encoded query, so the pagination probe
	// and the page crawl don't request page 1 twice in a row.
	pages *expirable.LRU[string, PageParse]
}

type ClientOptions struct {
	// full portal base url, see BaseURL
	BaseUrl string
	Session Session
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetTimeout(time.Second * 30)
	for name, value := range opts.Session.Cookies {
		client.SetCookie(&http.Cookie{Name: name, Value: value})
	}

	telemetry.InstrumentResty(client, "scrapers/hrm/http")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	return &Client{
		baseUrl: baseUrl,
		session: opts.Session,
		http:    client,
		pages:   expirable.NewLRU[string, PageParse](16, nil, time.Minute),
	}, nil
}

// WithSession returns a new Client bound to `session`. the receiver is
// left untouched, sessions are replaced rather than mutated in place.
func (c *Client) WithSession(session Session) (*Client, error) {
	return NewClient(ClientOptions{
		BaseUrl: c.baseUrl.String(),
		Session: session,
	})
}

func (c *Client) Session() Session {
	return c.session
}

// BuildQuery reproduces the querystring the portal UI sends: the
// standing favorite/project filter plus, when known, the page
// parameter discovered at runtime.
func BuildQuery(projectId int64, pageParam string, page int) url.Values {
	query := url.Values{}
	query.Add("tf[favorite_contact][]", "")
	query.Add("tf[project_id][]", strconv.FormatInt(projectId, 10))
	if pageParam != "" && page > 0 {
		query.Add(pageParam, strconv.Itoa(page))
	}
	return query
}
