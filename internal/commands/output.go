package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/WilliamsRotolo/autocaricamento/internal/crawler"
	crawlerrors "github.com/WilliamsRotolo/autocaricamento/pkg/errors"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatTable:
		return nil
	default:
		return crawlerrors.NewValidation("", fmt.Sprintf("unknown output format %q", format))
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderListings prints listings in the selected format
func renderListings(w io.Writer, format string, listings []crawler.Listing) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	listings = inPositionOrder(listings)
	if format == formatJSON {
		return writeJSON(w, listings)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Category", "Title", "Price", "Year", "Km", "Fuel", "Gearbox", "Link"})

	for i, l := range listings {
		position := i + 1
		if l.Position > 0 {
			position = l.Position
		}
		t.AppendRow(table.Row{
			position,
			string(l.Category),
			l.Title,
			l.Price,
			l.Year,
			l.Mileage,
			l.FuelType,
			l.Transmission,
			l.Link,
		})
	}

	t.AppendFooter(table.Row{"", "", "Total", len(listings)})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

// inPositionOrder returns a copy of listings sorted by position, renumbered
// when two share a position. Listings that were never positioned keep their
// page order.
func inPositionOrder(listings []crawler.Listing) []crawler.Listing {
	out := slices.Clone(listings)
	if out == nil {
		return []crawler.Listing{}
	}
	if !slices.ContainsFunc(out, func(l crawler.Listing) bool { return l.Position > 0 }) {
		return out
	}
	if crawler.HasPositionConflicts(out) {
		crawler.Renumber(out)
	} else {
		crawler.SortByPosition(out)
	}
	return out
}

type pageCheck struct {
	Page    int  `json:"page"`
	HasNext bool `json:"has_next"`
}

func renderPageCheck(w io.Writer, format string, check pageCheck) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		return writeJSON(w, check)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Page", "Next page"})
	t.AppendRow(table.Row{check.Page, check.HasNext})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
