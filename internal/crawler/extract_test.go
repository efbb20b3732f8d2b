package crawler

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://www.rotoloautomobili.com"

func TestParseListingsFromPage(t *testing.T) {
	card := testCard{
		Href:    "/auto/usato/jeep-compass-12345",
		Label:   "Usato",
		Year:    "2021",
		Brand:   "JEEP",
		Model:   "Compass",
		Variant: "1.3 T4 PHEV Limited 4xe",
		Km:      "32.500",
		Fuel:    "Ibrida Plug-in",
		Gear:    "Automatico",
		Price:   "€ 27.900",
		Images: []string{
			`<img src="https://loghiqr.ibi.it/loghi/jeep.png">`,
			`<img src="https://s3.amazonaws.com/rotolo/compass-1.jpg">`,
		},
	}

	listings := ParseListingsFromPage(pageHTML(0, card), testBaseURL)
	require.Len(t, listings, 1)

	want := Listing{
		Title:        "JEEP Compass 1.3 T4 PHEV Limited 4xe",
		Price:        "€ 27.900",
		Year:         "2021",
		Mileage:      "32500",
		FuelType:     "Ibrida Plug-in",
		Transmission: "Automatico",
		Link:         "https://www.rotoloautomobili.com/auto/usato/jeep-compass-12345",
		Image:        "https://s3.amazonaws.com/rotolo/compass-1.jpg",
		Category:     Used,
		Label:        "Usato",
	}
	if diff := cmp.Diff(want, listings[0]); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestParseListingsFromPage_Title(t *testing.T) {
	tests := []struct {
		name string
		card testCard
		want string
	}{
		{
			name: "brand model variant",
			card: testCard{Brand: "FIAT", Model: "Panda", Variant: "1.0 Hybrid"},
			want: "FIAT Panda 1.0 Hybrid",
		},
		{
			name: "model repeats brand",
			card: testCard{Brand: "FIAT", Model: "FIAT Panda", Variant: "1.0 Hybrid"},
			want: "FIAT Panda 1.0 Hybrid",
		},
		{
			name: "model repeats multi word brand",
			card: testCard{Brand: "Land Rover", Model: "land rover Defender", Variant: "110"},
			want: "Land Rover Defender 110",
		},
		{
			name: "no variant",
			card: testCard{Brand: "FIAT", Model: "Panda"},
			want: "FIAT Panda",
		},
		{
			name: "no model",
			card: testCard{Brand: "FIAT", Variant: "500X Cross"},
			want: "FIAT 500X Cross",
		},
		{
			name: "no bold brand",
			card: testCard{Model: "Peugeot 208", Variant: "Active"},
			want: "Peugeot 208 Active",
		},
		{
			name: "extra whitespace",
			card: testCard{Brand: "  OPEL ", Model: "\n  Corsa  ", Variant: "  1.2   Edition "},
			want: "OPEL Corsa 1.2 Edition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.card.Href = "/auto/title-test"
			tt.card.Price = "€ 10.000"
			listings := ParseListingsFromPage(pageHTML(0, tt.card), testBaseURL)
			require.Len(t, listings, 1)
			assert.Equal(t, tt.want, listings[0].Title)
		})
	}
}

func TestParseListingsFromPage_NestedModelMarkup(t *testing.T) {
	html := `<html><body>
	<a class="item" href="/auto/nested">
		<div class="section1"><div class="t1"><b>ALFA ROMEO</b> Tonale <span class="badge">Nuovo</span></div>
		<div class="t2">1.5 Hybrid Ti</div></div>
		<div class="section3"><div class="prezzo">€ 35.500</div></div>
	</a></body></html>`

	listings := ParseListingsFromPage(html, testBaseURL)
	require.Len(t, listings, 1)
	assert.Equal(t, "ALFA ROMEO Tonale 1.5 Hybrid Ti", listings[0].Title)
}

func TestParseListingsFromPage_PriceText(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  string
	}{
		{"plain", "€ 11.900", "€ 11.900"},
		{"padded", "\n\t  € 11.900  \n", "€ 11.900"},
		{"currency in its own element", "12.900<span>€</span>", "12.900€"},
		{"split with whitespace", " 12.900 <small> € </small> ", "12.900€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := simpleCard("price")
			card.Price = tt.price
			listings := ParseListingsFromPage(pageHTML(0, card), testBaseURL)
			require.Len(t, listings, 1)
			assert.Equal(t, tt.want, listings[0].Price)
		})
	}
}

func TestParseListingsFromPage_Rejections(t *testing.T) {
	valid := simpleCard("valid")

	noPrice := simpleCard("no-price")
	noPrice.Price = ""

	noCurrency := simpleCard("no-currency")
	noCurrency.Price = "Prezzo su richiesta"

	noTitle := simpleCard("no-title")
	noTitle.Brand, noTitle.Model, noTitle.Variant = "", "", ""

	otherPath := simpleCard("other")
	otherPath.Href = "/promozioni/other"

	html := pageHTML(0, valid, noPrice, noCurrency, noTitle, otherPath) +
		`<a href="/auto/not-an-item">plain anchor</a>`

	listings := ParseListingsFromPage(html, testBaseURL)
	require.Len(t, listings, 1)
	assert.Equal(t, testBaseURL+"/auto/valid", listings[0].Link)
}

func TestParseListingsFromPage_DuplicateLinks(t *testing.T) {
	first := simpleCard("dup")
	second := simpleCard("dup")
	second.Price = "€ 1"

	listings := ParseListingsFromPage(pageHTML(0, first, simpleCard("other"), second), testBaseURL)
	require.Len(t, listings, 2)
	assert.Equal(t, "€ 11.900", listings[0].Price, "first occurrence wins")
	assert.Equal(t, testBaseURL+"/auto/other", listings[1].Link)
}

func TestParseListingsFromPage_Images(t *testing.T) {
	tests := []struct {
		name   string
		images []string
		want   string
	}{
		{
			name: "skips logo and placeholder",
			images: []string{
				`<img src="https://loghiqr.ibi.it/loghi/fiat.png">`,
				`<img src="/img/no_photo_default.jpg">`,
				`<img src="https://cdn.example.com/panda.jpg">`,
			},
			want: "https://cdn.example.com/panda.jpg",
		},
		{
			name: "only logo and placeholder",
			images: []string{
				`<img src="https://loghiqr.ibi.it/loghi/fiat.png">`,
				`<img src="/img/no_photo_default.jpg">`,
			},
			want: "",
		},
		{
			name:   "site relative",
			images: []string{`<img src="/media/panda.jpg">`},
			want:   testBaseURL + "/media/panda.jpg",
		},
		{
			name:   "protocol relative",
			images: []string{`<img src="//cdn.example.com/panda.jpg">`},
			want:   "https://cdn.example.com/panda.jpg",
		},
		{
			name:   "lazy loaded",
			images: []string{`<img data-src="https://cdn.example.com/lazy.jpg">`},
			want:   "https://cdn.example.com/lazy.jpg",
		},
		{
			name:   "malformed protocol only",
			images: []string{`<img src="https:">`, `<img src="https://cdn.example.com/next.jpg">`},
			want:   "https://cdn.example.com/next.jpg",
		},
		{
			name:   "no images",
			images: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := simpleCard("image-test")
			card.Images = tt.images
			listings := ParseListingsFromPage(pageHTML(0, card), testBaseURL)
			require.Len(t, listings, 1)
			assert.Equal(t, tt.want, listings[0].Image)
		})
	}
}

func TestParseListingsFromPage_Mileage(t *testing.T) {
	tests := []struct {
		name  string
		href  string
		label string
		km    string
		want  string
	}{
		{name: "thousands separator", href: "/auto/usato/a", label: "Usato", km: "203.000", want: "203000"},
		{name: "unit suffix", href: "/auto/usato/b", label: "Usato", km: "15 km", want: "15"},
		{name: "missing on used", href: "/auto/usato/c", label: "Usato", want: ""},
		{name: "missing on km0 path", href: "/auto/km0/fiat-panda-1", label: "", want: "0"},
		{name: "missing on km-0 slug", href: "/auto/fiat-panda-km-0-77", label: "", want: "0"},
		{name: "missing on km0 label", href: "/auto/d", label: "Km 0", want: "0"},
		{name: "km0 path keeps parsed value", href: "/auto/km0/e", label: "Km0", km: "10", want: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := simpleCard("mileage")
			card.Href = tt.href
			card.Label = tt.label
			card.Km = tt.km
			listings := ParseListingsFromPage(pageHTML(0, card), testBaseURL)
			require.Len(t, listings, 1)
			assert.Equal(t, tt.want, listings[0].Mileage)
		})
	}
}

func TestParseListingsFromPage_ZeroMileageCard(t *testing.T) {
	html := `<html><body>
	<a class="item" href="/auto/km0/peugeot-208-99">
		<div class="info"><span>Km0</span><span>2024</span></div>
		<div class="section1"><div class="t1"><b>PEUGEOT</b> 208</div><div class="t2">PureTech 100 Allure</div></div>
		<div class="section2"><div class="t2"><span>Alimentazione</span><span>Benzina</span></div></div>
		<div class="section3"><div class="prezzo">€ 19.400</div></div>
	</a></body></html>`

	listings := ParseListingsFromPage(html, testBaseURL)
	require.Len(t, listings, 1)
	assert.Equal(t, "0", listings[0].Mileage)
	assert.Equal(t, ZeroMileage, listings[0].Category)
	assert.Equal(t, "Benzina", listings[0].FuelType)
	assert.Empty(t, listings[0].Transmission)
}

func TestParseListingsFromPage_ZeroMileageLabelOnly(t *testing.T) {
	card := simpleCard("peugeot-208-98")
	card.Label = "Km0"
	card.Km = ""

	listings := ParseListingsFromPage(pageHTML(0, card), testBaseURL)
	require.Len(t, listings, 1)
	assert.Equal(t, ZeroMileage, listings[0].Category)
	assert.Empty(t, listings[0].Mileage, "only the link path implies zero mileage")
}

func TestParseListingsFromPage_Specs(t *testing.T) {
	html := `<html><body>
	<a class="item" href="/auto/specs">
		<div class="section1"><div class="t1"><b>BMW</b> X1</div></div>
		<div class="section2">
			<div class="t2"><span>Colore</span><span>Nero</span></div>
			<div class="t2"><span>Trasmissione</span><span>Automatica</span></div>
			<div class="t2"><span>CARBURANTE</span><span>Diesel</span></div>
			<div class="t2"><span>Alimentazione</span><span>Benzina</span></div>
			<div class="t2"><span>Cambio</span></div>
		</div>
		<div class="section3"><div class="prezzo">€ 31.000</div></div>
	</a></body></html>`

	listings := ParseListingsFromPage(html, testBaseURL)
	require.Len(t, listings, 1)
	assert.Equal(t, "Diesel", listings[0].FuelType, "first fuel match wins")
	assert.Equal(t, "Automatica", listings[0].Transmission)
}

func TestParseListingsFromPage_Year(t *testing.T) {
	tests := []struct {
		year string
		want string
	}{
		{year: "2019", want: "2019"},
		{year: " 03/2018 ", want: "2018"},
		{year: "N/D", want: ""},
		{year: "", want: ""},
		{year: "123", want: ""},
	}

	for _, tt := range tests {
		card := simpleCard("year")
		card.Year = tt.year
		listings := ParseListingsFromPage(pageHTML(0, card), testBaseURL)
		require.Len(t, listings, 1)
		assert.Equal(t, tt.want, listings[0].Year, "year %q", tt.year)
	}
}

func TestParseListingsFromPage_MissingInfo(t *testing.T) {
	html := `<html><body>
	<a class="item" href="/auto/no-info">
		<div class="section1"><div class="t1"><b>KIA</b> Picanto</div></div>
		<div class="section3"><div class="prezzo">€ 9.900</div></div>
	</a></body></html>`

	listings := ParseListingsFromPage(html, testBaseURL)
	require.Len(t, listings, 1)
	assert.Empty(t, listings[0].Year)
	assert.Empty(t, listings[0].Label)
	assert.Empty(t, listings[0].Category)
	assert.Empty(t, listings[0].Image)
}

func TestParseListingsFromPage_Idempotent(t *testing.T) {
	html := pageHTML(3, simpleCard("a"), simpleCard("b"), simpleCard("c"))

	first := ParseListingsFromPage(html, testBaseURL)
	second := ParseListingsFromPage(html, testBaseURL)
	require.Len(t, first, 3)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-parsing changed the result (-first +second):\n%s", diff)
	}
}

func TestParseListingsFromPage_Properties(t *testing.T) {
	var cards []testCard
	for i, km := range []string{"", "12.000", "0", "abc"} {
		c := simpleCard(strings.Repeat("x", i+1))
		c.Km = km
		c.Images = []string{
			`<img src="https://loghiqr.ibi.it/a.png">`,
			`<img data-srcset="/media/` + c.Href[6:] + `-640.jpg 640w, /media/big.jpg 1280w">`,
		}
		cards = append(cards, c)
	}
	cards = append(cards, cards[0])

	yearRe := regexp.MustCompile(`^\d{4}$`)
	digitsRe := regexp.MustCompile(`^\d+$`)

	listings := ParseListingsFromPage(pageHTML(2, cards...), testBaseURL)
	require.Len(t, listings, 4)

	links := make(map[string]bool)
	for _, l := range listings {
		assert.False(t, links[l.Link], "duplicate link %s", l.Link)
		links[l.Link] = true

		assert.NotEmpty(t, l.Title)
		assert.GreaterOrEqual(t, len(strings.Fields(l.Title)), 2)
		assert.Equal(t, 1, strings.Count(l.Title, "FIAT"), "brand duplicated in %q", l.Title)
		assert.Contains(t, l.Price, "€")
		if l.Year != "" {
			assert.Regexp(t, yearRe, l.Year)
		}
		if l.Mileage != "" {
			assert.Regexp(t, digitsRe, l.Mileage)
		}
		if l.Image != "" {
			assert.True(t, strings.HasPrefix(l.Image, "http://") || strings.HasPrefix(l.Image, "https://"))
			assert.NotContains(t, l.Image, BrandLogoMarker)
			assert.NotContains(t, l.Image, NoPhotoMarker)
		}
		assert.Zero(t, l.Position, "positions are assigned by the aggregator")
	}
}

func TestCardParser_ImageOrigin(t *testing.T) {
	card := simpleCard("origin")
	card.Images = []string{`<img src="/media/origin.jpg">`}

	parser := NewCardParser(testBaseURL+"/", "https://img.example.com")
	listings := parser.Parse(pageHTML(0, card))
	require.Len(t, listings, 1)
	assert.Equal(t, "https://img.example.com/media/origin.jpg", listings[0].Image)
	assert.Equal(t, testBaseURL+"/auto/origin", listings[0].Link)
}

func TestParseListingsFromPage_EmptyInput(t *testing.T) {
	assert.Empty(t, ParseListingsFromPage("", testBaseURL))
	assert.Empty(t, ParseListingsFromPage("<html><body><p>Nessun risultato</p></body></html>", testBaseURL))
}
