package adapters

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

var (
	countPattern     = regexp.MustCompile(`\d[\d,]*`)
	starLabelPattern = regexp.MustCompile(`(?i)\b([1-5])\s*stars?`)
)

// SummarySpec lists where a retailer renders its review summary.
type SummarySpec struct {
	// Average selects the average rating. The first decimal number found is
	// taken, which is a heuristic and breaks when a price renders first.
	Average []utils.Strategy
	// Total selects the element carrying the review count
	Total []utils.Strategy
	// Histogram selects the container of the per-star rows
	Histogram []utils.Strategy
	// Rows selects the rows inside the histogram container
	Rows []utils.Strategy
	// Counts selects count cells inside a row; the last one with a number
	// wins
	Counts []utils.Strategy

	AverageFormat func(value string) string
	TotalFormat   func(value string) string
}

// ExtractSummary reads the summary fields independently. A field that cannot
// be found stays empty.
func ExtractSummary(doc *goquery.Selection, spec SummarySpec) types.ReviewSummary {
	summary := types.ReviewSummary{RatingHistogram: map[string]string{}}

	if text, ok := utils.FirstText(doc, spec.Average...); ok {
		if m := numberPattern.FindString(text); m != "" {
			summary.AverageRating = formatWith(spec.AverageFormat, m)
		}
	}

	if text, ok := utils.FirstText(doc, spec.Total...); ok {
		if m := countPattern.FindString(text); m != "" {
			summary.TotalCount = formatWith(spec.TotalFormat, strings.ReplaceAll(m, ",", ""))
		}
	}

	container, ok := utils.FindFirst(doc, spec.Histogram...)
	if !ok {
		return summary
	}
	rows, _ := utils.FindFirst(container.First(), spec.Rows...)
	rows.Each(func(_ int, row *goquery.Selection) {
		label := starLabelPattern.FindStringSubmatch(row.Text())
		if label == nil {
			return
		}
		summary.RatingHistogram[label[1]+" star"] = rowCount(row, spec.Counts, label[0])
	})
	return summary
}

// rowCount takes the last count cell holding a number, else the first number
// in the row text outside the star label.
func rowCount(row *goquery.Selection, counts []utils.Strategy, label string) string {
	cells, _ := utils.FindFirst(row, counts...)
	for i := cells.Length() - 1; i >= 0; i-- {
		if m := countPattern.FindString(cells.Eq(i).Text()); m != "" {
			return strings.ReplaceAll(m, ",", "")
		}
	}
	text := strings.Replace(utils.CleanText(row.Text()), label, "", 1)
	if m := countPattern.FindString(text); m != "" {
		return strings.ReplaceAll(m, ",", "")
	}
	return ""
}

func formatWith(format func(string) string, value string) string {
	if format == nil {
		return value
	}
	return format(value)
}

// ProductLD is the subset of a schema.org Product JSON-LD block we read.
type ProductLD struct {
	Name        string
	Brand       string
	Price       string
	RatingValue string
	ReviewCount string
}

// ProductJSONLD returns the first Product block found in the document's
// ld+json scripts.
func ProductJSONLD(doc *goquery.Selection) (ProductLD, bool) {
	var product ProductLD
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		product, found = findProduct(data)
		return !found
	})
	return product, found
}

func findProduct(data interface{}) (ProductLD, bool) {
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			if p, ok := findProduct(item); ok {
				return p, true
			}
		}
	case map[string]interface{}:
		if isProduct(v["@type"]) {
			p := ProductLD{
				Name:  ldString(v["name"]),
				Brand: ldName(v["brand"]),
				Price: offerPrice(v["offers"]),
			}
			if rating, ok := v["aggregateRating"].(map[string]interface{}); ok {
				p.RatingValue = ldString(rating["ratingValue"])
				p.ReviewCount = ldString(rating["reviewCount"])
				if p.ReviewCount == "" {
					p.ReviewCount = ldString(rating["ratingCount"])
				}
			}
			if p.Name != "" {
				return p, true
			}
		}
		if graph, ok := v["@graph"]; ok {
			return findProduct(graph)
		}
	}
	return ProductLD{}, false
}

func isProduct(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product")
	case []interface{}:
		for _, item := range v {
			if isProduct(item) {
				return true
			}
		}
	}
	return false
}

func offerPrice(offers interface{}) string {
	switch v := offers.(type) {
	case []interface{}:
		if len(v) > 0 {
			return offerPrice(v[0])
		}
	case map[string]interface{}:
		if p := ldString(v["price"]); p != "" {
			return p
		}
		if spec, ok := v["priceSpecification"].(map[string]interface{}); ok {
			return ldString(spec["price"])
		}
		return ldString(v["lowPrice"])
	}
	return ""
}

func ldName(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		return ldString(m["name"])
	}
	return ldString(v)
}

func ldString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return utils.CleanText(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

// SummaryFromJSONLD builds a summary from a Product block's aggregate rating.
func SummaryFromJSONLD(product ProductLD) types.ReviewSummary {
	return types.ReviewSummary{
		AverageRating:   product.RatingValue,
		TotalCount:      product.ReviewCount,
		RatingHistogram: map[string]string{},
	}
}
