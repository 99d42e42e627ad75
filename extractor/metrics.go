package extractor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the run's Prometheus collectors on a private registry.
type Metrics struct {
	Registry         *prometheus.Registry
	ProductsTotal    *prometheus.CounterVec
	ReviewsCollected *prometheus.CounterVec
	ReviewPages      *prometheus.CounterVec
	ProductErrors    *prometheus.CounterVec
	ProductDuration  prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewscrape_products_total",
			Help: "Products visited, by outcome.",
		},
		[]string{"retailer", "outcome"},
	)
	reviews := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewscrape_reviews_collected_total",
			Help: "Unique reviews collected.",
		},
		[]string{"retailer"},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewscrape_review_pages_total",
			Help: "Review page reads, including the first page of each product.",
		},
		[]string{"retailer"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewscrape_product_errors_total",
			Help: "Products abandoned at the error boundary, by error kind.",
		},
		[]string{"retailer", "kind"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewscrape_product_duration_seconds",
			Help:    "Wall time spent on one product visit.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	registry.MustRegister(products, reviews, pages, errorsTotal, duration)

	return &Metrics{
		Registry:         registry,
		ProductsTotal:    products,
		ReviewsCollected: reviews,
		ReviewPages:      pages,
		ProductErrors:    errorsTotal,
		ProductDuration:  duration,
	}
}

// ObserveProduct records one finished product visit.
func (m *Metrics) ObserveProduct(retailer, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProductsTotal.WithLabelValues(retailer, outcome).Inc()
	m.ProductDuration.Observe(d.Seconds())
}

// AddReviews adds to the collected reviews counter.
func (m *Metrics) AddReviews(retailer string, n int) {
	if m == nil {
		return
	}
	m.ReviewsCollected.WithLabelValues(retailer).Add(float64(n))
}

// AddPages adds to the review page reads counter.
func (m *Metrics) AddPages(retailer string, n int) {
	if m == nil {
		return
	}
	m.ReviewPages.WithLabelValues(retailer).Add(float64(n))
}

// IncError increments the product error counter for a kind label.
func (m *Metrics) IncError(retailer, kind string) {
	if m == nil {
		return
	}
	m.ProductErrors.WithLabelValues(retailer, kind).Inc()
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
