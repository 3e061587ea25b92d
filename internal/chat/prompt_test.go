package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/freshcart/shopmate/internal/domain"
	"github.com/stretchr/testify/assert"
)

func promptData(items []domain.CatalogItem) PromptData {
	return PromptData{
		Catalog: domain.NewCatalog(items),
		Now:     time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC),
	}
}

func TestPromptLowStockDirective(t *testing.T) {
	p := StorePromptBuilder{}.BuildSystemInstruction(promptData([]domain.CatalogItem{
		{ID: "low", Name: "Saffron", Price: 12, Unit: "jar", Stock: 2},
		{ID: "high", Name: "Rice", Price: 3, Unit: "kg", Stock: 40},
	}))

	assert.Contains(t, p, "only 2 left in stock")
	assert.NotContains(t, p, "only 40 left")
	// The directive is tied to the low-stock item, not sprayed everywhere.
	assert.Equal(t, 1, strings.Count(p, "recommend ordering soon"))
}

func TestPromptRendersEveryItemField(t *testing.T) {
	p := StorePromptBuilder{}.BuildSystemInstruction(promptData([]domain.CatalogItem{{
		ID:          "tom-1",
		Name:        "Heirloom Tomatoes",
		Price:       4.5,
		Unit:        "lb",
		Stock:       12,
		Origin:      "California",
		Description: "Sweet and meaty.",
		PrepNote:    "Best sliced raw with salt.",
		Nutrition:   "Rich in lycopene.",
		Tags:        []string{"produce", "organic"},
	}}))

	assert.Contains(t, p, "[tom-1]")
	assert.Contains(t, p, "Heirloom Tomatoes")
	assert.Contains(t, p, "4.50 per lb")
	assert.Contains(t, p, "12 in stock")
	assert.Contains(t, p, "California")
	assert.Contains(t, p, "Sweet and meaty.")
	assert.Contains(t, p, "Best sliced raw with salt.")
	assert.Contains(t, p, "Rich in lycopene.")
	assert.Contains(t, p, "produce, organic")
}

func TestPromptTimeOfDayAlwaysPresent(t *testing.T) {
	cases := map[int]string{
		7:  "morning",
		12: "midday",
		15: "afternoon",
		19: "evening",
		23: "late at night",
		3:  "late at night",
	}
	for hour, want := range cases {
		d := promptData(nil)
		d.Now = time.Date(2026, time.March, 10, hour, 0, 0, 0, time.UTC)
		p := StorePromptBuilder{}.BuildSystemInstruction(d)
		assert.Contains(t, p, want, "hour %d", hour)
	}
}

func TestPromptSeasonalHintOnlyInWindow(t *testing.T) {
	d := promptData(nil)

	d.Now = time.Date(2026, time.December, 28, 11, 0, 0, 0, time.UTC)
	assert.Contains(t, StorePromptBuilder{}.BuildSystemInstruction(d), "holiday season")

	// The Dec 24 .. Jan 5 window wraps the year end.
	d.Now = time.Date(2026, time.January, 3, 11, 0, 0, 0, time.UTC)
	assert.Contains(t, StorePromptBuilder{}.BuildSystemInstruction(d), "holiday season")

	d.Now = time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC)
	p := StorePromptBuilder{}.BuildSystemInstruction(d)
	assert.NotContains(t, p, "holiday season")
	assert.NotContains(t, p, "Valentine's")
	assert.NotContains(t, p, "picnic season")
	assert.NotContains(t, p, "Harvest season")
}

func TestPromptUserContext(t *testing.T) {
	d := promptData(nil)
	d.User = &domain.UserProfile{ID: "u1", Name: "Dana", Tier: "gold"}
	p := StorePromptBuilder{}.BuildSystemInstruction(d)
	assert.Contains(t, p, "Dana")
	assert.Contains(t, p, "gold member")

	d.User = nil
	p = StorePromptBuilder{}.BuildSystemInstruction(d)
	assert.Contains(t, p, "anonymous visitor")
}

func TestPromptCartAndOrders(t *testing.T) {
	d := promptData(nil)
	p := StorePromptBuilder{}.BuildSystemInstruction(d)
	assert.Contains(t, p, "cart is empty")
	assert.Contains(t, p, "no recent orders")

	d.Cart = []domain.CartLine{{ItemID: "a", Name: "Apples", Quantity: 3}}
	d.Orders = []domain.Order{
		{ID: "o4", PlacedAt: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), Total: 18.20, Lines: []domain.OrderLine{{Name: "Milk", Quantity: 2}}},
		{ID: "o3", PlacedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Total: 9.10},
		{ID: "o2", PlacedAt: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), Total: 30.00},
		{ID: "o1", PlacedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Total: 55.00},
	}
	p = StorePromptBuilder{}.BuildSystemInstruction(d)
	assert.Contains(t, p, "3x Apples")
	assert.Contains(t, p, "2x Milk")
	// Only the three most recent orders appear.
	assert.Contains(t, p, "2026-02-20")
	assert.NotContains(t, p, "2026-02-01")
}

func TestPromptOutputContract(t *testing.T) {
	p := StorePromptBuilder{}.BuildSystemInstruction(promptData(nil))
	assert.Contains(t, p, "recommendedProductIds")
	assert.Contains(t, p, "```json")
}
