package types

import (
	"context"
	"time"
)

// AnonymousReviewer is the reviewer name used when a card carries none.
const AnonymousReviewer = "Anonymous"

// ReviewRecord is one review card normalized into the common record shape.
type ReviewRecord struct {
	ReviewerName string  `json:"reviewer_name" bson:"reviewer_name"`
	RatingText   string  `json:"rating_text" bson:"rating_text"`
	Title        string  `json:"title" bson:"title"`
	Date         string  `json:"date" bson:"date"`
	Body         string  `json:"body" bson:"body"`
	Sentiment    *Scores `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
}

// IsEmpty reports whether the record carries no content. The default
// reviewer name does not count as content.
func (r ReviewRecord) IsEmpty() bool {
	name := r.ReviewerName
	if name == AnonymousReviewer {
		name = ""
	}
	return name == "" && r.RatingText == "" && r.Title == "" && r.Date == "" && r.Body == ""
}

// Scores holds the polarity scores attached to a review after scoring.
type Scores struct {
	Label    string  `json:"label" bson:"label"`
	Compound float64 `json:"compound" bson:"compound"`
	Pos      float64 `json:"pos" bson:"pos"`
	Neg      float64 `json:"neg" bson:"neg"`
	Neu      float64 `json:"neu" bson:"neu"`
}

// ReviewSummary is the best-effort product-level rating summary.
type ReviewSummary struct {
	AverageRating   string            `json:"average_rating" bson:"average_rating"`
	TotalCount      string            `json:"total_count" bson:"total_count"`
	RatingHistogram map[string]string `json:"rating_histogram" bson:"rating_histogram"`
}

// SearchResultHandle points at one product position within a fixed search
// results view.
type SearchResultHandle struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Name  string `json:"name,omitempty"`
	Brand string `json:"brand,omitempty"`
	Price string `json:"price,omitempty"`
}

// ProductDetails is the product metadata read from a detail page.
type ProductDetails struct {
	Name  string
	Price string
}

// OutputShape describes a retailer's output document convention.
type OutputShape struct {
	// Wrapped emits {"search": ..., "products": [...]} instead of a flat list.
	Wrapped bool
	// KeyedReviews emits reviews as a customer_review_NNN mapping.
	KeyedReviews bool
}

// PaginationPolicy bounds how far review pagination may go for a retailer.
type PaginationPolicy struct {
	MaxAdvances int
	Settle      time.Duration
}

// ReviewPager exposes the review cards of the open product page.
type ReviewPager interface {
	// Cards parses every review card currently rendered.
	Cards(ctx context.Context) ([]ReviewRecord, error)

	// Advance invokes the next page or load more control. It returns false
	// when the control is absent or disabled.
	Advance(ctx context.Context) (bool, error)
}

// SiteAdapter defines the retailer-specific navigation and extraction logic
type SiteAdapter interface {
	// Name returns the retailer name used in records
	Name() string

	// Output returns the retailer's output document convention
	Output() OutputShape

	// Pagination returns the retailer's default pagination bounds
	Pagination() PaginationPolicy

	// SearchBase returns the search endpoint recorded in wrapped documents
	SearchBase() string

	// Prepare opens the landing page and clears blocking overlays
	Prepare(ctx context.Context) error

	// Search runs a category query and returns the results view URL and up to
	// limit product handles
	Search(ctx context.Context, category string, limit int) (string, []SearchResultHandle, error)

	// OpenProduct navigates from the results view to the product detail page
	OpenProduct(ctx context.Context, handle SearchResultHandle) error

	// Reset returns the session to the saved results view
	Reset(ctx context.Context, resultsURL string) error

	// CurrentURL returns the URL of the page the session is on
	CurrentURL(ctx context.Context) (string, error)

	// ProductDetails reads product metadata from the open detail page
	ProductDetails(ctx context.Context, handle SearchResultHandle) ProductDetails

	// OpenReviews brings the reviews section into a readable state
	OpenReviews(ctx context.Context) error

	// Summary extracts the review summary of the open product
	Summary(ctx context.Context) ReviewSummary

	// Reviews returns a pager over the open product's review cards
	Reviews(ctx context.Context) (ReviewPager, error)
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
