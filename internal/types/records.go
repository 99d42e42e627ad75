package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ProductRecord is one product visit with its summary and collected reviews
type ProductRecord struct {
	Retailer         string         `json:"retailer" bson:"retailer"`
	Category         string         `json:"category" bson:"category"`
	ProductName      string         `json:"product_name" bson:"product_name"`
	ProductURL       string         `json:"product_url" bson:"product_url"`
	Price            string         `json:"price,omitempty" bson:"price,omitempty"`
	ReviewSummary    ReviewSummary  `json:"review_summary" bson:"review_summary"`
	ReviewsCollected int            `json:"reviews_collected" bson:"reviews_collected"`
	Reviews          []ReviewRecord `json:"-" bson:"reviews"`

	// KeyedReviews emits Reviews as a customer_review_NNN mapping.
	KeyedReviews bool `json:"-" bson:"-"`
}

// ReviewKey returns the stable 1-based key of the i-th review (0-based i).
func ReviewKey(i int) string {
	return fmt.Sprintf("customer_review_%03d", i+1)
}

// Identifier returns the name used to group the product in summaries.
func (p ProductRecord) Identifier() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	return p.ProductURL
}

func (p ProductRecord) MarshalJSON() ([]byte, error) {
	type plain ProductRecord
	var reviews interface{}
	if p.KeyedReviews {
		keyed := make(map[string]ReviewRecord, len(p.Reviews))
		for i, r := range p.Reviews {
			keyed[ReviewKey(i)] = r
		}
		reviews = keyed
	} else {
		list := p.Reviews
		if list == nil {
			list = []ReviewRecord{}
		}
		reviews = list
	}
	return marshalLiteral(struct {
		plain
		Reviews interface{} `json:"reviews"`
	}{plain(p), reviews})
}

func (p *ProductRecord) UnmarshalJSON(data []byte) error {
	type plain ProductRecord
	aux := struct {
		*plain
		Reviews json.RawMessage `json:"reviews"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Reviews)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '{' {
		var keyed map[string]ReviewRecord
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return fmt.Errorf("decode keyed reviews: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p.Reviews = make([]ReviewRecord, 0, len(keys))
		for _, k := range keys {
			p.Reviews = append(p.Reviews, keyed[k])
		}
		p.KeyedReviews = true
		return nil
	}
	return json.Unmarshal(raw, &p.Reviews)
}

// SearchInfo describes the run in wrapped output documents
type SearchInfo struct {
	Categories []string `json:"categories"`
	Base       string   `json:"base"`
	ScrapedAt  string   `json:"scraped_at"`
}

// Document is the output collection of one retailer run. It marshals as a
// flat product list when Search is nil.
type Document struct {
	Search   *SearchInfo
	Products []ProductRecord
}

func (d Document) MarshalJSON() ([]byte, error) {
	products := d.Products
	if products == nil {
		products = []ProductRecord{}
	}
	if d.Search == nil {
		return marshalLiteral(products)
	}
	return marshalLiteral(struct {
		Search   *SearchInfo     `json:"search"`
		Products []ProductRecord `json:"products"`
	}{d.Search, products})
}

func (d *Document) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '[' {
		d.Search = nil
		return json.Unmarshal(raw, &d.Products)
	}
	var wrapped struct {
		Search   *SearchInfo     `json:"search"`
		Products []ProductRecord `json:"products"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return err
	}
	d.Search = wrapped.Search
	if d.Search == nil {
		d.Search = &SearchInfo{}
	}
	d.Products = wrapped.Products
	return nil
}

// marshalLiteral encodes v without escaping <, > and &, so review text
// survives into the file as written.
func marshalLiteral(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
