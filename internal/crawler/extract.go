package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	yearPattern     = regexp.MustCompile(`\b\d{4}\b`)
	kmLabelPattern  = regexp.MustCompile(`(?i)^km\s*`)
	nonDigitPattern = regexp.MustCompile(`\D`)
	km0PathPattern  = regexp.MustCompile(`(?i)(^|[/\-_])km-?0([/\-_]|$)`)
)

// CardParser converts listing pages into Listings
type CardParser struct {
	BaseURL   string
	Selectors Selectors
	Images    ImageNormalizer
}

// NewCardParser creates a parser for pages served under baseURL. Relative
// image references resolve against imageOrigin, or baseURL when empty.
func NewCardParser(baseURL, imageOrigin string) *CardParser {
	baseURL = strings.TrimRight(baseURL, "/")
	if imageOrigin == "" {
		imageOrigin = baseURL
	}
	return &CardParser{
		BaseURL:   baseURL,
		Selectors: DefaultSelectors,
		Images:    NewImageNormalizer(imageOrigin),
	}
}

// ParseListingsFromPage parses every valid card of a page, in document order,
// without duplicate links
func ParseListingsFromPage(html, baseURL string) []Listing {
	return NewCardParser(baseURL, "").Parse(html)
}

// Parse extracts the listings of one page. Malformed cards are skipped.
func (p *CardParser) Parse(html string) []Listing {
	doc, err := ParseMarkup(html)
	if err != nil {
		return nil
	}
	return p.ParseDocument(doc)
}

// ParseDocument is Parse for an already parsed page
func (p *CardParser) ParseDocument(doc MarkupNode) []Listing {
	var listings []Listing
	seen := make(map[string]bool)

	for _, card := range doc.FindAll(p.Selectors.Card) {
		listing, ok := p.parseCard(card)
		if !ok || seen[listing.Link] {
			continue
		}
		seen[listing.Link] = true
		listings = append(listings, listing)
	}
	return listings
}

func (p *CardParser) parseCard(card MarkupNode) (Listing, bool) {
	href, _ := card.Attr("href")
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, ListingPathPrefix) {
		return Listing{}, false
	}

	listing := Listing{Link: p.BaseURL + href}

	if info, ok := card.FindFirst(p.Selectors.Info); ok {
		labels := info.FindAll(p.Selectors.InfoLabel)
		if len(labels) >= 1 {
			listing.Label = cleanText(labels[0].Text())
		}
		if len(labels) >= 2 {
			listing.Year = yearPattern.FindString(labels[1].Text())
		}
	}
	listing.Category = classifyCategory(listing.Label)

	listing.Image = p.parseImage(card)

	if section1, ok := card.FindFirst(p.Selectors.Section1); ok {
		listing.Title = p.parseTitle(section1)
	}
	if listing.Title == "" {
		return Listing{}, false
	}

	if section2, ok := card.FindFirst(p.Selectors.Section2); ok {
		listing.Mileage = p.parseMileage(section2)
		listing.FuelType, listing.Transmission = p.parseSpecs(section2)
	}
	if listing.Mileage == "" && isZeroMileagePath(href) {
		listing.Mileage = "0"
	}

	if section3, ok := card.FindFirst(p.Selectors.Section3); ok {
		if price, ok := section3.FindFirst(p.Selectors.Price); ok {
			listing.Price = price.CompactText()
		}
	}
	if listing.Price == "" || !strings.Contains(listing.Price, CurrencyMarker) {
		return Listing{}, false
	}

	return listing, true
}

func (p *CardParser) parseImage(card MarkupNode) string {
	region, ok := card.FindFirst(p.Selectors.ImageRegion)
	if !ok {
		return ""
	}
	for _, img := range region.FindAll(p.Selectors.Image) {
		if image := p.Images.NormalizeNode(img); image != "" {
			return image
		}
	}
	return ""
}

// parseTitle composes "{brand} {baseModel} {variant}" from the bold brand,
// the text nodes next to it and the second text block
func (p *CardParser) parseTitle(section1 MarkupNode) string {
	var brand, baseModel, variant string

	if primary, ok := section1.FindFirst(p.Selectors.Primary); ok {
		if bold, ok := primary.FindFirst(p.Selectors.Brand); ok {
			brand = cleanText(bold.Text())
			baseModel = cleanText(primary.OwnText())
		} else {
			baseModel = cleanText(primary.Text())
		}
	}
	if secondary, ok := section1.FindFirst(p.Selectors.Secondary); ok {
		variant = cleanText(secondary.Text())
	}

	baseModel = trimLeadingWord(baseModel, brand)

	parts := make([]string, 0, 3)
	for _, part := range []string{brand, baseModel, variant} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func (p *CardParser) parseMileage(section2 MarkupNode) string {
	primary, ok := section2.FindFirst(p.Selectors.Primary)
	if !ok {
		return ""
	}
	text := kmLabelPattern.ReplaceAllString(cleanText(primary.Text()), "")
	return nonDigitPattern.ReplaceAllString(text, "")
}

func (p *CardParser) parseSpecs(section2 MarkupNode) (fuel, transmission string) {
	for _, block := range section2.FindAll(p.Selectors.Secondary) {
		pair := block.FindAll(p.Selectors.LabelPair)
		if len(pair) < 2 {
			continue
		}
		label := strings.ToLower(cleanText(pair[0].Text()))
		value := cleanText(pair[1].Text())

		switch {
		case fuel == "" && containsAny(label, fuelKeywords):
			fuel = value
		case transmission == "" && containsAny(label, transmissionKeywords):
			transmission = value
		}
	}
	return fuel, transmission
}

// isZeroMileagePath reports whether a listing path belongs to the km0 section
func isZeroMileagePath(href string) bool {
	path := href
	if u, err := url.Parse(href); err == nil {
		path = u.Path
	}
	return km0PathPattern.MatchString(path)
}

// trimLeadingWord drops word from the start of s when it repeats it
func trimLeadingWord(s, word string) string {
	if word == "" || s == "" {
		return s
	}
	fields := strings.Fields(s)
	wordFields := strings.Fields(word)
	if len(fields) < len(wordFields) {
		return s
	}
	for i, w := range wordFields {
		if !strings.EqualFold(fields[i], w) {
			return s
		}
	}
	return strings.Join(fields[len(wordFields):], " ")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
