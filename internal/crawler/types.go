package crawler

// Listing represents one parsed vehicle record
type Listing struct {
	Title        string     `json:"title"`
	Price        string     `json:"price"`
	Year         string     `json:"year"`
	Mileage      string     `json:"mileage"`
	FuelType     string     `json:"fuel_type"`
	Transmission string     `json:"transmission"`
	Link         string     `json:"link"`
	Image        string     `json:"image"`
	Category     CategoryID `json:"category"`
	Label        string     `json:"label,omitempty"`
	Position     int        `json:"position,omitempty"`
}

// Selectors contains CSS selectors for the parts of a listing page
type Selectors struct {
	Card        string
	Info        string
	InfoLabel   string
	ImageRegion string
	Image       string
	Section1    string
	Section2    string
	Section3    string
	Primary     string
	Secondary   string
	Brand       string
	LabelPair   string
	Price       string
	Pagination  string
	PageLink    string
}

// DefaultSelectors matches the markup of the dealership listing pages
var DefaultSelectors = Selectors{
	Card:        "a.item",
	Info:        "div.info",
	InfoLabel:   "span",
	ImageRegion: "div.image",
	Image:       "img",
	Section1:    "div.section1",
	Section2:    "div.section2",
	Section3:    "div.section3",
	Primary:     "div.t1",
	Secondary:   "div.t2",
	Brand:       "b",
	LabelPair:   "span",
	Price:       "div.prezzo",
	Pagination:  "div.paginazione",
	PageLink:    "a.cta_pageitem",
}

const (
	// ListingPathPrefix starts the href of every listing card
	ListingPathPrefix = "/auto/"

	// BrandLogoMarker identifies brand logo images served by the logo host
	BrandLogoMarker = "loghiqr.ibi.it"

	// NoPhotoMarker identifies the site's placeholder image
	NoPhotoMarker = "no_photo_default"

	// CurrencyMarker must appear in every accepted price
	CurrencyMarker = "€"
)

var (
	fuelKeywords         = []string{"alimentazione", "carburante", "fuel"}
	transmissionKeywords = []string{"cambio", "trasmissione", "transmission"}
)
