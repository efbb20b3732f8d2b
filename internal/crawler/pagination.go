package crawler

import (
	"fmt"
	"net/url"
	"regexp"
)

// HasNextPage reports whether the pagination control of a page links to
// currentPage+1. A page without pagination has no next page.
func HasNextPage(html string, currentPage int) bool {
	doc, err := ParseMarkup(html)
	if err != nil {
		return false
	}
	return hasNextPage(doc, DefaultSelectors, currentPage)
}

func hasNextPage(doc MarkupNode, selectors Selectors, currentPage int) bool {
	region, ok := doc.FindFirst(selectors.Pagination)
	if !ok {
		return false
	}

	pattern := nextPagePattern(currentPage + 1)
	for _, anchor := range region.FindAll(selectors.PageLink) {
		href, _ := anchor.Attr("href")
		if href == "" {
			continue
		}
		if pattern.MatchString(href) {
			return true
		}
		if decoded, err := url.QueryUnescape(href); err == nil && pattern.MatchString(decoded) {
			return true
		}
	}
	return false
}

func nextPagePattern(page int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)[?&]page=%d(?:[&#%%]|$)`, page))
}
