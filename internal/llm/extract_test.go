package llm

import (
	"testing"

	"github.com/freshcart/shopmate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *domain.Catalog {
	return domain.NewCatalog([]domain.CatalogItem{
		{ID: "A", Name: "Alphonso Mangoes", Price: 8.0, Unit: "box", Stock: 10},
		{ID: "B", Name: "Burrata", Price: 7.5, Unit: "each", Stock: 4},
	})
}

func TestExtractValidBlock(t *testing.T) {
	raw := "Here's my pick.\n```json\n{\"recommendedProductIds\":[\"A\",\"Z\"]}\n```"

	clean, items := ExtractRecommendations(raw, testCatalog())

	assert.Equal(t, "Here's my pick.", clean)
	require.Len(t, items, 1)
	assert.Equal(t, "Alphonso Mangoes", items[0].Name)
}

func TestExtractIsIdempotent(t *testing.T) {
	raw := "Try the burrata!\n```json\n{\"recommendedProductIds\":[\"B\"]}\n```"

	clean, items := ExtractRecommendations(raw, testCatalog())
	require.Len(t, items, 1)

	again, items2 := ExtractRecommendations(clean, testCatalog())
	assert.Equal(t, clean, again)
	assert.Empty(t, items2)
}

func TestExtractNoBlock(t *testing.T) {
	raw := "Just a friendly chat, no products involved."

	clean, items := ExtractRecommendations(raw, testCatalog())

	assert.Equal(t, raw, clean)
	assert.Empty(t, items)
}

func TestExtractMalformedBlockLeftInPlace(t *testing.T) {
	raw := "Pick these.\n```json\n{\"recommendedProductIds\": [\"A\",]}\n```"

	clean, items := ExtractRecommendations(raw, testCatalog())

	assert.Equal(t, raw, clean)
	assert.Empty(t, items)
}

func TestExtractForeignJSONBlockIgnored(t *testing.T) {
	raw := "Some config:\n```json\n{\"temperature\": 0.7}\n```"

	clean, items := ExtractRecommendations(raw, testCatalog())

	assert.Equal(t, raw, clean)
	assert.Empty(t, items)
}

func TestExtractExtraFieldsTolerated(t *testing.T) {
	raw := "Go with these.\n```json\n{\"recommendedProductIds\":[\"B\"],\"confidence\":0.9}\n```"

	clean, items := ExtractRecommendations(raw, testCatalog())

	assert.Equal(t, "Go with these.", clean)
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].ID)
}

func TestExtractEmptyIDList(t *testing.T) {
	raw := "Nothing to suggest.\n```json\n{\"recommendedProductIds\":[]}\n```"

	clean, items := ExtractRecommendations(raw, testCatalog())

	assert.Equal(t, "Nothing to suggest.", clean)
	assert.Empty(t, items)
}

func TestExtractFirstBlockWins(t *testing.T) {
	raw := "One.\n```json\n{\"recommendedProductIds\":[\"A\"]}\n```\nTwo.\n```json\n{\"recommendedProductIds\":[\"B\"]}\n```"

	clean, items := ExtractRecommendations(raw, testCatalog())

	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].ID)
	assert.Contains(t, clean, "Two.")
}

func TestExtractNilCatalog(t *testing.T) {
	raw := "Pick.\n```json\n{\"recommendedProductIds\":[\"A\"]}\n```"

	clean, items := ExtractRecommendations(raw, nil)

	assert.Equal(t, "Pick.", clean)
	assert.Empty(t, items)
}
