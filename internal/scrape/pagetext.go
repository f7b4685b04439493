package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	blankRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// VisibleText reduces rendered HTML to the text a person would see, which is
// what the extraction engine runs against. Matching on visible text instead
// of raw markup is what lets extraction survive structural drift in the
// portal's DOM.
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, head").Remove()

	var b strings.Builder
	doc.Find("body").Contents().Each(func(_ int, sel *goquery.Selection) {
		appendBlockText(&b, sel)
	})

	text := b.String()
	if text == "" {
		// Fragment without a body element; fall back to the whole tree.
		text = doc.Text()
	}

	text = blankRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

// appendBlockText walks the node tree, inserting line breaks at block
// boundaries so label/value pairs on separate rows don't fuse into one line.
func appendBlockText(b *strings.Builder, sel *goquery.Selection) {
	nodeName := goquery.NodeName(sel)
	switch nodeName {
	case "#text":
		if t := strings.TrimSpace(sel.Text()); t != "" {
			b.WriteString(t)
			b.WriteString(" ")
		}
		return
	case "br":
		b.WriteString("\n")
		return
	}

	block := isBlockElement(nodeName)
	if block {
		b.WriteString("\n")
	}
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		appendBlockText(b, child)
	})
	if block {
		b.WriteString("\n")
	}
}

func isBlockElement(name string) bool {
	switch name {
	case "div", "p", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6",
		"table", "section", "article", "header", "footer", "form", "ul", "ol":
		return true
	}
	return false
}
