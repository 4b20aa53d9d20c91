package hrm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"hrmexport/lib/htmlutil"
	"hrmexport/lib/textutil"
)

// Contact is one row of the contact search results.
type Contact struct {
	BadgeId    string
	FullnameVN string
	FullnameEN string
	Email      string
	WorkPhone  string
	Position   string
	Location   string
	// insertion-ordered, no duplicates
	Projects  []string
	DetailUrl string
	ResumeUrl string
}

// PageParse is the structured form of one results page.
type PageParse struct {
	CurrentPage int
	MaxPage     int
	// the "1-50 of 195" label from the pager, informational only
	TotalText string
	Rows      []Contact
}

var submitPageRegex = regexp.MustCompile(`submitPage\((\d+)\)`)

// ParsePage turns a results page into rows plus pager metadata. a CAS
// login page in place of results means the session has expired and is
// reported as ErrSessionExpired; a page that is neither is a layout
// mismatch and fails outright.
func ParsePage(ctx context.Context, base *url.URL, body []byte) (PageParse, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return PageParse{}, fmt.Errorf("parse results html: %w", err)
	}

	table := doc.Find("table#resultTable")
	if table.Length() == 0 {
		if isCasLoginPage(doc, body) {
			return PageParse{}, ErrSessionExpired
		}
		return PageParse{}, fmt.Errorf("cannot find table#resultTable, the results layout may have changed")
	}

	currentPage, maxPage, totalText := parsePager(doc)
	return PageParse{
		CurrentPage: currentPage,
		MaxPage:     maxPage,
		TotalText:   totalText,
		Rows:        parseRows(ctx, base, table),
	}, nil
}

func isCasLoginPage(doc *goquery.Document, body []byte) bool {
	if doc.Find("form#fm1").Length() > 0 {
		return true
	}
	return bytes.Contains(body, []byte("CAS - Central")) ||
		bytes.Contains(body, []byte("Single Sign On"))
}

// parsePager reads the "ul.paging.top" widget. no pager means a
// single-page result, not an error.
func parsePager(doc *goquery.Document) (currentPage, maxPage int, totalText string) {
	currentPage, maxPage = 1, 1

	paging := doc.Find("ul.paging.top").First()
	if paging.Length() == 0 {
		return
	}

	totalText = htmlutil.CleanText(paging.Find("li.desc"))

	current, err := strconv.Atoi(htmlutil.CleanText(paging.Find("a.current").First()))
	if err == nil {
		currentPage = current
	}

	// the last page is only reachable through submitPage(n) handlers,
	// take the largest n on the widget
	html, err := goquery.OuterHtml(paging)
	if err == nil {
		for _, groups := range submitPageRegex.FindAllStringSubmatch(html, -1) {
			n, err := strconv.Atoi(groups[1])
			if err == nil && n > maxPage {
				maxPage = n
			}
		}
	}
	return
}

func parseRows(ctx context.Context, base *url.URL, table *goquery.Selection) []Contact {
	var rows []Contact
	table.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 8 {
			return
		}

		badgeId := htmlutil.CleanText(tds.Eq(0))
		if badgeId == "" {
			slog.WarnContext(ctx, "skipping row without a badge id", "row", i)
			return
		}

		vnName, enName := parseFullname(tds.Eq(1))

		emailCell := tds.Eq(3)
		email := htmlutil.CleanText(emailCell.Find("a[href^=mailto]").First())
		if email == "" {
			email = htmlutil.CleanText(emailCell)
		}

		projectsCell := tds.Eq(7)
		detailUrl := htmlutil.ResolveHref(
			base,
			projectsCell.Find("a.text-bold[href*=viewContactSearchDetail]").First(),
		)
		resumeUrl := ""
		if tds.Length() >= 9 {
			resumeUrl = htmlutil.ResolveHref(
				base,
				tds.Eq(8).Find("a[href*=viewResume]").First(),
			)
		}

		rows = append(rows, Contact{
			BadgeId:    badgeId,
			FullnameVN: vnName,
			FullnameEN: enName,
			Email:      email,
			WorkPhone:  htmlutil.CleanText(tds.Eq(4)),
			Position:   htmlutil.CleanText(tds.Eq(5)),
			Location:   htmlutil.CleanText(tds.Eq(6)),
			Projects:   parseProjects(projectsCell),
			DetailUrl:  detailUrl,
			ResumeUrl:  resumeUrl,
		})
	})
	return rows
}

// the fullname cell holds the Vietnamese name in visible spans and the
// English name in a hidden span
func parseFullname(cell *goquery.Selection) (vn, en string) {
	en = htmlutil.CleanText(cell.Find("span.hide[id^=empEnglishName]"))

	visible := cell.Find("span").Not(".hide")
	if visible.Length() > 0 {
		var parts []string
		visible.Each(func(_ int, span *goquery.Selection) {
			parts = append(parts, htmlutil.CleanText(span))
		})
		vn = textutil.NormalizeSpace(strings.Join(parts, " "))
		return
	}

	vn = textutil.NormalizeSpace(strings.Replace(htmlutil.CleanText(cell), en, "", 1))
	return
}

func parseProjects(cell *goquery.Selection) []string {
	var projects []string
	seen := map[string]bool{}
	cell.Find("a.projects[href]").Each(func(_ int, a *goquery.Selection) {
		name := htmlutil.CleanText(a)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		projects = append(projects, name)
	})
	return projects
}
