package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"review-extractor/internal/types"
)

func review(name, body string) types.ReviewRecord {
	return types.ReviewRecord{ReviewerName: name, Title: "t", Date: "d", Body: body}
}

func TestAccumulator_DropsDuplicatesAndEmpties(t *testing.T) {
	acc := NewAccumulator(10)

	added := acc.AddAll([]types.ReviewRecord{
		review("a", "one"),
		review("a", "one"),
		{ReviewerName: types.AnonymousReviewer},
		{},
		review("b", "one"),
	})

	assert.Equal(t, 2, added)
	assert.Equal(t, 2, acc.Len())
	assert.False(t, acc.Full())
}

func TestAccumulator_RatingDoesNotChangeIdentity(t *testing.T) {
	acc := NewAccumulator(10)
	first := review("a", "one")
	again := first
	again.RatingText = "5"

	assert.True(t, acc.Add(first))
	assert.False(t, acc.Add(again))
}

func TestAccumulator_TruncatesToTarget(t *testing.T) {
	acc := NewAccumulator(2)

	acc.AddAll([]types.ReviewRecord{review("a", "1"), review("b", "2"), review("c", "3")})

	assert.True(t, acc.Full())
	assert.Equal(t, 3, acc.Len())
	records := acc.Records()
	assert.Equal(t, []types.ReviewRecord{review("a", "1"), review("b", "2")}, records)

	records[0].Body = "changed"
	assert.Equal(t, "1", acc.Records()[0].Body)
}

func TestAccumulator_Empty(t *testing.T) {
	acc := NewAccumulator(5)

	assert.NotNil(t, acc.Records())
	assert.Empty(t, acc.Records())
}
