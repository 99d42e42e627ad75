package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review-extractor/internal/types"
)

// Extractor orchestrates a run: categories, products and review pagination
// for one retailer over one browser session.
type Extractor struct {
	adapter   types.SiteAdapter
	config    types.Config
	logger    types.Logger
	metrics   *Metrics
	assembler Assembler
	now       func() time.Time
}

// NewExtractor creates an extractor for the selected adapter. metrics may be
// nil.
func NewExtractor(adapter types.SiteAdapter, config types.Config, logger types.Logger, metrics *Metrics) *Extractor {
	return &Extractor{
		adapter: adapter,
		config:  config,
		logger:  logger,
		metrics: metrics,
		assembler: Assembler{
			Retailer: adapter.Name(),
			Shape:    adapter.Output(),
		},
		now: time.Now,
	}
}

// Policy returns the pagination policy in effect: the retailer default with
// the configured page ceiling applied.
func (e *Extractor) Policy() types.PaginationPolicy {
	policy := e.adapter.Pagination()
	if e.config.MaxReviewPages > 0 {
		policy.MaxAdvances = e.config.MaxReviewPages
	}
	return policy
}

// ExtractAll scrapes every configured category. A failing product is logged
// and skipped; only setup failure or cancellation ends the run early, and
// the products collected so far are returned either way.
func (e *Extractor) ExtractAll(ctx context.Context) (types.Document, error) {
	startTime := time.Now()
	retailer := e.adapter.Name()
	e.logger.Infof("Starting %s extraction at %v", retailer, startTime.Format("15:04:05.000"))

	if err := e.adapter.Prepare(ctx); err != nil {
		return e.document(nil), fmt.Errorf("failed to prepare %s: %w", retailer, err)
	}

	var products []types.ProductRecord
	for _, category := range e.config.Categories {
		categoryStart := time.Now()
		e.logger.Infof("Processing category: %s", category)

		found, err := e.extractCategory(ctx, category)
		products = append(products, found...)
		if err != nil {
			return e.document(products), err
		}
		e.logger.Infof("Category %s completed in %v with %d products", category, time.Since(categoryStart), len(found))
	}

	e.logger.Infof("%s extraction completed in %v", retailer, time.Since(startTime))
	e.logger.Infof("Successfully processed %d products", len(products))
	return e.document(products), nil
}

// extractCategory runs one search and visits its products in order. It only
// returns an error when the context ends.
func (e *Extractor) extractCategory(ctx context.Context, category string) ([]types.ProductRecord, error) {
	retailer := e.adapter.Name()

	resultsURL, handles, err := e.adapter.Search(ctx, category, e.config.ProductsPerCategory)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warnf("Search for %s failed: %v", category, err)
		e.metrics.IncError(retailer, types.ErrorKind(err))
		return nil, nil
	}

	var products []types.ProductRecord
	for _, handle := range handles {
		productStart := time.Now()
		e.logger.Infof("Processing %s product #%d", category, handle.Index)

		record, err := e.extractProduct(ctx, category, handle)
		if err != nil {
			if ctx.Err() != nil {
				return products, ctx.Err()
			}
			kind := types.ErrorKind(err)
			e.logger.Warnf("Skipping %s product #%d due to error (%s): %v", category, handle.Index, kind, err)
			e.metrics.IncError(retailer, kind)
			e.metrics.ObserveProduct(retailer, "failed", time.Since(productStart))
		} else {
			products = append(products, record)
			e.metrics.ObserveProduct(retailer, "ok", time.Since(productStart))
			e.logger.Infof("Product %s processed in %v with %d reviews", record.Identifier(), time.Since(productStart), record.ReviewsCollected)
		}

		if err := e.adapter.Reset(ctx, resultsURL); err != nil {
			if ctx.Err() != nil {
				return products, ctx.Err()
			}
			e.logger.Warnf("Could not return to %s results, abandoning category: %v", category, err)
			break
		}
	}
	return products, nil
}

// extractProduct is the per-product boundary. Any error abandons the visit
// and its partial state.
func (e *Extractor) extractProduct(ctx context.Context, category string, handle types.SearchResultHandle) (types.ProductRecord, error) {
	retailer := e.adapter.Name()

	if err := e.adapter.OpenProduct(ctx, handle); err != nil {
		return types.ProductRecord{}, err
	}

	productURL, err := e.adapter.CurrentURL(ctx)
	if err != nil || productURL == "" {
		productURL = handle.URL
	}

	details := e.adapter.ProductDetails(ctx, handle)

	if err := e.adapter.OpenReviews(ctx); err != nil {
		return types.ProductRecord{}, unexpected("open_reviews", productURL, err)
	}

	summary := e.adapter.Summary(ctx)

	pager, err := e.adapter.Reviews(ctx)
	if err != nil {
		return types.ProductRecord{}, unexpected("reviews", productURL, err)
	}

	result, err := NewPaginator(pager, e.config.ReviewsPerProduct, e.Policy(), e.logger).Run(ctx)
	e.metrics.AddPages(retailer, result.Reads)
	if err != nil {
		return types.ProductRecord{}, unexpected("paginate", productURL, err)
	}
	e.metrics.AddReviews(retailer, len(result.Reviews))

	return e.assembler.Product(category, productURL, details, summary, result.Reviews), nil
}

func (e *Extractor) document(products []types.ProductRecord) types.Document {
	return e.assembler.Document(e.config.Categories, e.adapter.SearchBase(), products, e.now())
}

// unexpected tags an untyped failure as an unexpected page state
func unexpected(step, url string, err error) error {
	var stepErr *types.StepError
	if errors.As(err, &stepErr) || types.ErrorKind(err) != "unexpected_page_state" {
		return err
	}
	if !errors.Is(err, types.ErrUnexpectedPageState) {
		err = fmt.Errorf("%w: %v", types.ErrUnexpectedPageState, err)
	}
	return &types.StepError{Step: step, URL: url, Err: err}
}
