package crawler

import (
	"net/url"
	"strconv"
	"strings"

	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"
)

// CategoryID identifies one of the fixed listing sections
type CategoryID string

const (
	ZeroMileage     CategoryID = "km0"
	Used            CategoryID = "usato"
	OutletClearance CategoryID = "outlet"
)

// SectionConfig describes where a section lives and which query parameters
// each of its pages needs
type SectionConfig struct {
	ID     CategoryID
	Path   string
	Params func(page int) url.Values
}

// URL returns the section's listing URL under baseURL
func (s SectionConfig) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + s.Path
}

// categoryOrder fixes crawl order, which decides dedup conflicts
var categoryOrder = []CategoryID{ZeroMileage, Used, OutletClearance}

var sections = map[CategoryID]SectionConfig{
	ZeroMileage: {
		ID:   ZeroMileage,
		Path: "/lista-veicoli/km0/",
		Params: func(page int) url.Values {
			return url.Values{
				"Is5OrMorePosti": {"False"},
				"IsIvaEsposta":   {"False"},
				"Page":           {strconv.Itoa(page)},
				"NumeroVeicoli":  {"4"},
			}
		},
	},
	Used: {
		ID:   Used,
		Path: "/lista-veicoli/usato/",
		Params: func(page int) url.Values {
			return url.Values{
				"Page":                 {strconv.Itoa(page)},
				"NumeroVeicoli":        {"100"},
				"ListaFiltri[0].Value": {"USATO"},
			}
		},
	},
	OutletClearance: {
		ID:   OutletClearance,
		Path: "/outlet/",
		Params: func(page int) url.Values {
			return url.Values{
				"Is5OrMorePosti":      {"False"},
				"IsIvaEsposta":        {"False"},
				"IsNeoPatentati":      {"False"},
				"IsTrazioneIntegrale": {"False"},
				"Page":                {strconv.Itoa(page)},
				"NumeroVeicoli":       {"10"},
				"IsStorica":           {"True"},
			}
		},
	},
}

// Categories returns the configured categories in crawl order
func Categories() []CategoryID {
	out := make([]CategoryID, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Section looks up the configuration of id
func Section(id CategoryID) (SectionConfig, error) {
	s, ok := sections[id]
	if !ok {
		return SectionConfig{}, crawlerrors.NewUnknownCategory(string(id))
	}
	return s, nil
}

// ParseCategory converts user input such as "KM0" or " usato " to a CategoryID
func ParseCategory(s string) (CategoryID, error) {
	id := CategoryID(strings.ToLower(strings.TrimSpace(s)))
	if _, err := Section(id); err != nil {
		return "", err
	}
	return id, nil
}

// classifyCategory maps the label printed on a card to a section, if any
func classifyCategory(label string) CategoryID {
	normalized := strings.ToLower(strings.Join(strings.Fields(label), ""))
	switch {
	case normalized == "":
		return ""
	case strings.Contains(normalized, "km0") || strings.Contains(normalized, "kmzero"):
		return ZeroMileage
	case strings.Contains(normalized, "outlet"):
		return OutletClearance
	case strings.Contains(normalized, "usat"):
		return Used
	default:
		return ""
	}
}
