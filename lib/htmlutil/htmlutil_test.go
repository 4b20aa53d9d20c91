package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func selection(t *testing.T, html, sel string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find(sel)
}

func TestCleanText(t *testing.T) {
	// portal cells indent with non-breaking spaces and layout newlines
	sel := selection(t, "<td>Nguyễn&nbsp;Văn\n\t A</td>", "td")
	require.Equal(t, "Nguyễn Văn A", CleanText(sel))

	sel = selection(t, "<td>    </td>", "td")
	require.Equal(t, "", CleanText(sel))

	sel = selection(t, "<td><span>a</span> <span>b</span></td>", "td")
	require.Equal(t, "a b", CleanText(sel))
}

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://hrm.trna.com.vn/index.php/pim/viewContactSearch")
	require.NoError(t, err)

	sel := selection(t, `<a href="/index.php/attachment/viewResume?empNumber=E1">CV</a>`, "a")
	require.Equal(
		t,
		"https://hrm.trna.com.vn/index.php/attachment/viewResume?empNumber=E1",
		ResolveHref(base, sel),
	)

	sel = selection(t, `<a>CV</a>`, "a")
	require.Equal(t, "", ResolveHref(base, sel))
}
