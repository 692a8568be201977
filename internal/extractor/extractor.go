// Package extractor pulls the bulletin date, the commodity links and
// the per-crop table rows out of fetched HTML.
package extractor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"verdura-labs/market-scraper/internal/config"
)

// ErrParse marks a page whose expected markup is absent, usually a site
// layout change. A missing table is always an error, never an empty
// result.
var ErrParse = errors.New("unexpected page markup")

var logger = logrus.WithField("component", "extractor")

// FieldMap is one table row keyed by the table's header captions.
type FieldMap map[string]string

// CommodityLink is one per-crop detail page linked from the bulletin.
type CommodityLink struct {
	Name string
	Href string
}

// Extractor applies the configured selectors to bulletin pages.
type Extractor struct {
	sel        config.Selectors
	dateLayout string
}

func New(cfg *config.SiteConfig) *Extractor {
	return &Extractor{sel: cfg.Selectors, dateLayout: cfg.DateLayout}
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return doc, nil
}

// PageDate reads the bulletin's own observation date.
func (e *Extractor) PageDate(html string) (time.Time, error) {
	doc, err := parse(html)
	if err != nil {
		return time.Time{}, err
	}

	el := doc.Find(e.sel.Date).First()
	if el.Length() == 0 {
		return time.Time{}, fmt.Errorf("%w: date element '%s' not found", ErrParse, e.sel.Date)
	}

	text := strings.TrimSpace(el.Text())
	day, err := time.Parse(e.dateLayout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse date '%s' with layout '%s'", ErrParse, text, e.dateLayout)
	}
	return day, nil
}

// CommodityLinks lists the per-crop detail pages linked from the
// bulletin. An empty result is fine: some bulletins publish a single
// table directly.
func (e *Extractor) CommodityLinks(html string) ([]CommodityLink, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	var links []CommodityLink
	doc.Find(e.sel.CommodityLinks).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		href := s.AttrOr("href", "")
		if name == "" || href == "" {
			return
		}
		links = append(links, CommodityLink{Name: name, Href: href})
	})

	logger.Infof("Found %d commodity links", len(links))
	return links, nil
}

// Table extracts every body row of the bulletin table as a field-map
// keyed by the header captions.
func (e *Extractor) Table(html string) ([]FieldMap, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	table := doc.Find(e.sel.Table).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: table '%s' not found", ErrParse, e.sel.Table)
	}
	if table.Find("thead").Length() == 0 || table.Find("tbody").Length() == 0 {
		return nil, fmt.Errorf("%w: table '%s' is missing thead or tbody", ErrParse, e.sel.Table)
	}

	var headers []string
	table.Find(e.sel.Header).Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no header cells matching '%s'", ErrParse, e.sel.Header)
	}

	var rows []FieldMap
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var values []string
		if first := tr.Find(e.sel.FirstCell).First(); first.Length() > 0 {
			values = append(values, strings.TrimSpace(first.Text()))
		}
		tr.Find(e.sel.Cell).Each(func(_ int, td *goquery.Selection) {
			values = append(values, strings.TrimSpace(td.Text()))
		})
		if len(values) == 0 {
			return
		}

		row := make(FieldMap, len(headers))
		for i, v := range values {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = v
		}
		rows = append(rows, row)
	})

	logger.Infof("Extracted %d rows from table", len(rows))
	return rows, nil
}
