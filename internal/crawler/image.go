package crawler

import (
	"regexp"
	"strings"
)

// imageAttributes lists the source attributes of an <img> in the order they
// are tried: direct source, lazy-load sources, then responsive lists.
var imageAttributes = []string{"src", "data-src", "data-lazy", "data-original", "data-srcset", "srcset"}

var absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// ImageNormalizer turns raw image references into canonical absolute URLs
type ImageNormalizer struct {
	// Origin is prepended to site-root-relative references
	Origin string

	// Exclude holds substrings (logo host, placeholder file) that disqualify
	// a candidate
	Exclude []string
}

// NewImageNormalizer creates a normalizer that skips the site's brand logos
// and no-photo placeholder
func NewImageNormalizer(origin string) ImageNormalizer {
	return ImageNormalizer{
		Origin:  strings.TrimRight(origin, "/"),
		Exclude: []string{BrandLogoMarker, NoPhotoMarker},
	}
}

// Normalize resolves a single reference. Empty means unusable.
func (n ImageNormalizer) Normalize(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	switch lower := strings.ToLower(value); {
	case lower == "http:" || lower == "https:":
		return ""
	case strings.HasPrefix(value, "//"):
		value = "https:" + value
	case strings.HasPrefix(value, "/"):
		value = strings.TrimRight(n.Origin, "/") + value
	}

	if !absoluteURLPattern.MatchString(value) {
		return ""
	}
	return value
}

// NormalizeNode tries the node's source attributes in priority order and
// returns the first one that normalizes to a usable, non-excluded URL
func (n ImageNormalizer) NormalizeNode(node MarkupNode) string {
	for _, attr := range imageAttributes {
		raw, ok := node.Attr(attr)
		if !ok {
			continue
		}
		if strings.HasSuffix(attr, "srcset") {
			raw = firstSrcsetURL(raw)
		}
		if n.excluded(raw) {
			continue
		}
		if normalized := n.Normalize(raw); normalized != "" {
			return normalized
		}
	}
	return ""
}

func (n ImageNormalizer) excluded(raw string) bool {
	for _, marker := range n.Exclude {
		if marker != "" && strings.Contains(raw, marker) {
			return true
		}
	}
	return false
}

// firstSrcsetURL takes the URL of the first candidate in a srcset list
func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
