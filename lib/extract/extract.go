package extract

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"linkharvest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
var emailExact = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]*[a-zA-Z0-9]$`)

// Emails returns the distinct email-like substrings found in the given
// texts, lower-cased and sorted. The same mailbox in different casing
// collapses to one entry. An address at the end of a sentence matches
// with the trailing punctuation attached, so matches are trimmed and
// re-checked against Valid; everything returned here passes Valid and
// can round-trip through the ledger.
func Emails(texts []string) []string {
	found := map[string]bool{}
	for _, t := range texts {
		for _, m := range emailRegex.FindAllString(t, -1) {
			m = strings.TrimRight(m, ".-")
			if !Valid(m) {
				continue
			}
			found[strings.ToLower(m)] = true
		}
	}

	out := make([]string, 0, len(found))
	for e := range found {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Valid reports whether s is a well-formed address on its own, used to
// reject malformed ledger rows on read.
func Valid(s string) bool {
	return emailExact.MatchString(s)
}

// Posts pulls the visible text of each feed post out of rendered page
// HTML. Posts are marked with role="article", with data-urn divs as a
// fallback for older markup. Duplicate post texts are dropped,
// preserving order.
func Posts(pageHTML string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(pageHTML))
	if err != nil {
		return nil, err
	}

	sel := doc.Find(`div[role="article"]`)
	if sel.Length() == 0 {
		sel = doc.Find("div[data-urn]")
	}

	seen := map[string]bool{}
	var posts []string
	for _, node := range sel.Nodes {
		text := htmlutil.CleanText(htmlutil.GetText(node))
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		posts = append(posts, text)
	}
	return posts, nil
}
