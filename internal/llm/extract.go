package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/freshcart/shopmate/internal/domain"
)

// recommendationRe matches the fenced block the assistant appends when it
// recommends concrete catalog items:
//
//	```json
//	{"recommendedProductIds": ["id1", "id2"]}
//	```
//
// Only the first block is considered; the model contract allows at most one.
var recommendationRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

type recommendationPayload struct {
	RecommendedProductIDs []string `json:"recommendedProductIds"`
}

// ExtractRecommendations searches text for the recommendation side-channel
// block, resolves its product identifiers against the catalog snapshot, and
// returns the text with the block stripped plus the resolved items.
//
// The extraction is best-effort and idempotent: if no block is present, it
// fails to parse, or it lacks the recommendedProductIds field, the text is
// returned unchanged with no recommendations. Identifiers not present in
// the catalog are dropped silently.
func ExtractRecommendations(text string, catalog *domain.Catalog) (string, []domain.CatalogItem) {
	m := recommendationRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text, nil
	}

	blockStart, blockEnd := m[0], m[1]
	payload := text[m[2]:m[3]]

	var rec recommendationPayload
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return text, nil
	}
	if rec.RecommendedProductIDs == nil {
		// Some other JSON island, not ours.
		return text, nil
	}

	var items []domain.CatalogItem
	if catalog != nil {
		for _, id := range rec.RecommendedProductIDs {
			if item, ok := catalog.Resolve(id); ok {
				items = append(items, item)
			}
		}
	}

	clean := strings.TrimSpace(text[:blockStart] + text[blockEnd:])
	return clean, items
}
