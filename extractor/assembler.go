package extractor

import (
	"time"

	"review-extractor/internal/types"
)

// scrapedAtLayout is the timestamp layout of wrapped documents.
const scrapedAtLayout = "2006-01-02 15:04:05"

// Assembler folds extracted parts into the retailer's record and document
// shapes.
type Assembler struct {
	Retailer string
	Shape    types.OutputShape
}

// Product builds the finished record of one visit. The URL is the final
// navigated URL of the detail page.
func (a Assembler) Product(category, productURL string, details types.ProductDetails, summary types.ReviewSummary, reviews []types.ReviewRecord) types.ProductRecord {
	if summary.RatingHistogram == nil {
		summary.RatingHistogram = map[string]string{}
	}
	if reviews == nil {
		reviews = []types.ReviewRecord{}
	}
	return types.ProductRecord{
		Retailer:         a.Retailer,
		Category:         category,
		ProductName:      details.Name,
		ProductURL:       productURL,
		Price:            details.Price,
		ReviewSummary:    summary,
		ReviewsCollected: len(reviews),
		Reviews:          reviews,
		KeyedReviews:     a.Shape.KeyedReviews,
	}
}

// Document wraps the run's products in the retailer's document convention
func (a Assembler) Document(categories []string, searchBase string, products []types.ProductRecord, scrapedAt time.Time) types.Document {
	if products == nil {
		products = []types.ProductRecord{}
	}
	doc := types.Document{Products: products}
	if a.Shape.Wrapped {
		doc.Search = &types.SearchInfo{
			Categories: categories,
			Base:       searchBase,
			ScrapedAt:  scrapedAt.Format(scrapedAtLayout),
		}
	}
	return doc
}
