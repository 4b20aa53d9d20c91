package htmlutil

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"hrmexport/lib/textutil"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// non-printable runes become plain spaces rather than vanishing, so a
// non-breaking space or stray control character between two words
// never glues them together. NormalizeSpace collapses the runs.
func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		} else {
			newStr.WriteRune(' ')
		}
	}
	return newStr.String()
}

// the text of a selection with layout noise stripped out
func CleanText(sel *goquery.Selection) string {
	return textutil.NormalizeSpace(removeNonPrintable(sel.Text()))
}

type Anchor struct {
	Name string
	Href string
}

// resolves the href of the first anchor in `sel` against `base`,
// returns the empty string when there is no usable link.
func ResolveHref(base *url.URL, sel *goquery.Selection) string {
	href := sel.AttrOr("href", "")
	if href == "" {
		return ""
	}
	link, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	return link.String()
}

func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	sel.Each(func(_ int, a *goquery.Selection) {
		anchors = append(anchors, Anchor{
			Name: CleanText(a),
			Href: ResolveHref(base, a),
		})
	})
	return anchors
}
