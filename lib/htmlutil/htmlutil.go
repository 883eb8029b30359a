package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetText returns the visible text of a node, with a space between
// adjacent text nodes so words from sibling elements don't run together.
func GetText(node *html.Node) string {
	var parts []string
	getTextRecursive(node, &parts)
	return strings.Join(parts, " ")
}

func getTextRecursive(node *html.Node, parts *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		text := strings.TrimSpace(node.Data)
		if text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	// script/style text is not visible content
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, parts)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText strips non-printable characters and collapses runs of
// whitespace into single spaces.
func CleanText(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	cleaned := strings.Trim(out.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(cleaned, " ")
}
