package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewKey(t *testing.T) {
	assert.Equal(t, "customer_review_001", ReviewKey(0))
	assert.Equal(t, "customer_review_042", ReviewKey(41))
}

func TestReviewRecord_IsEmpty(t *testing.T) {
	assert.True(t, ReviewRecord{}.IsEmpty())
	assert.True(t, ReviewRecord{ReviewerName: AnonymousReviewer}.IsEmpty())
	assert.False(t, ReviewRecord{ReviewerName: "Sam"}.IsEmpty())
	assert.False(t, ReviewRecord{ReviewerName: AnonymousReviewer, RatingText: "4"}.IsEmpty())
}

func TestProductRecord_Identifier(t *testing.T) {
	assert.Equal(t, "Name", ProductRecord{ProductName: "Name", ProductURL: "u"}.Identifier())
	assert.Equal(t, "u", ProductRecord{ProductURL: "u"}.Identifier())
}

func TestProductRecord_MarshalKeyed(t *testing.T) {
	p := ProductRecord{
		ProductName:      "Toner",
		ReviewsCollected: 2,
		Reviews:          []ReviewRecord{{Body: "one"}, {Body: "two"}},
		KeyedReviews:     true,
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, "2", string(raw["reviews_collected"]))

	var reviews map[string]ReviewRecord
	require.NoError(t, json.Unmarshal(raw["reviews"], &reviews))
	assert.Equal(t, "one", reviews["customer_review_001"].Body)
	assert.Equal(t, "two", reviews["customer_review_002"].Body)
}

func TestProductRecord_MarshalList(t *testing.T) {
	data, err := json.Marshal(ProductRecord{ProductName: "Toner"})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "[]", string(raw["reviews"]))
	_, hasPrice := raw["price"]
	assert.False(t, hasPrice)
}

func TestProductRecord_Unmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKeyed bool
		wantBody  []string
	}{
		{
			name:      "keyed sorted by key",
			input:     `{"product_name":"A","reviews":{"customer_review_002":{"body":"b"},"customer_review_001":{"body":"a"}}}`,
			wantKeyed: true,
			wantBody:  []string{"a", "b"},
		},
		{
			name:     "list",
			input:    `{"product_name":"A","reviews":[{"body":"x"},{"body":"y"}]}`,
			wantBody: []string{"x", "y"},
		},
		{
			name:  "null",
			input: `{"product_name":"A","reviews":null}`,
		},
		{
			name:  "absent",
			input: `{"product_name":"A"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ProductRecord
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, "A", p.ProductName)
			assert.Equal(t, tt.wantKeyed, p.KeyedReviews)

			var bodies []string
			for _, r := range p.Reviews {
				bodies = append(bodies, r.Body)
			}
			assert.Equal(t, tt.wantBody, bodies)
		})
	}
}

func TestDocument_Marshal(t *testing.T) {
	flat, err := json.Marshal(Document{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(flat))

	wrapped, err := Document{Search: &SearchInfo{Base: "https://shop.test/?q=<x>&y"}}.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(wrapped), `"base":"https://shop.test/?q=<x>&y"`)
	assert.Contains(t, string(wrapped), `"products":[]`)
}

func TestDocument_Unmarshal(t *testing.T) {
	var flat Document
	require.NoError(t, json.Unmarshal([]byte(` [{"product_name":"A"}]`), &flat))
	assert.Nil(t, flat.Search)
	require.Len(t, flat.Products, 1)

	var wrapped Document
	require.NoError(t, json.Unmarshal([]byte(`{"search":{"categories":["toner"]},"products":[{"product_name":"B"}]}`), &wrapped))
	require.NotNil(t, wrapped.Search)
	assert.Equal(t, []string{"toner"}, wrapped.Search.Categories)
	assert.Equal(t, "B", wrapped.Products[0].ProductName)

	var nullSearch Document
	require.NoError(t, json.Unmarshal([]byte(`{"search":null,"products":[]}`), &nullSearch))
	assert.NotNil(t, nullSearch.Search)
}
