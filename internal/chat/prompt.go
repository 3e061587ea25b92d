// Package chat implements shopping-assistant conversation sessions: the
// rolling transcript, the dynamically built system instruction, and the
// streamed exchange with the completion provider.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/freshcart/shopmate/internal/domain"
)

// lowStockThreshold is the stock level below which the prompt carries an
// urgency directive for an item.
const lowStockThreshold = 5

// PromptData is everything the system instruction is rendered from. All
// fields are snapshots: the builder never reaches out to live state.
type PromptData struct {
	Catalog *domain.Catalog
	User    *domain.UserProfile
	Orders  []domain.Order
	Cart    []domain.CartLine
	Now     time.Time
}

// PromptBuilder renders a system instruction from snapshot data. It is an
// interface so session tests can substitute a fixed instruction and prompt
// tests can assert on directive phrases in isolation.
type PromptBuilder interface {
	BuildSystemInstruction(data PromptData) string
}

// StorePromptBuilder is the production PromptBuilder. It is stateless.
type StorePromptBuilder struct{}

// seasonalWindow is a recurring month/day range with an associated hint.
// Windows may wrap the year end.
type seasonalWindow struct {
	fromMonth time.Month
	fromDay   int
	toMonth   time.Month
	toDay     int
	hint      string
}

var seasonalWindows = []seasonalWindow{
	{time.December, 24, time.January, 5, "It is the year-end holiday season: customers are shopping for festive dinners and gifts."},
	{time.February, 8, time.February, 20, "Valentine's season is here: suggest treats and ingredients for a special dinner for two."},
	{time.June, 1, time.June, 10, "Early-summer picnic season: fresh fruit, salads, and grill items are popular right now."},
	{time.September, 20, time.October, 6, "Harvest season: autumn produce and baking staples are in demand."},
}

func (w seasonalWindow) contains(t time.Time) bool {
	md := int(t.Month())*100 + t.Day()
	from := int(w.fromMonth)*100 + w.fromDay
	to := int(w.toMonth)*100 + w.toDay
	if from <= to {
		return md >= from && md <= to
	}
	// Wraps the year end, e.g. Dec 24 .. Jan 5.
	return md >= from || md <= to
}

func timeOfDayHint(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 10:
		return "It is morning: breakfast items and fresh bakery goods are a natural suggestion."
	case h >= 10 && h < 14:
		return "It is midday: quick lunch options and ready-to-eat items fit well."
	case h >= 14 && h < 17:
		return "It is the afternoon: snacks and ingredients for tonight's dinner are timely."
	case h >= 17 && h < 22:
		return "It is evening: dinner ingredients and tomorrow's breakfast are top of mind."
	default:
		return "It is late at night: keep suggestions light and mention next-day delivery."
	}
}

// BuildSystemInstruction renders the full system instruction: assistant
// persona, the complete catalog with stock urgency where warranted,
// date/time context, customer context, cart and recent-order summaries,
// and the recommendation output contract.
func (StorePromptBuilder) BuildSystemInstruction(data PromptData) string {
	var b strings.Builder

	b.WriteString("You are FreshCart's shopping assistant: a friendly, concise grocery expert. ")
	b.WriteString("Answer questions about products, suggest items, and help the customer decide. ")
	b.WriteString("Never invent products that are not in the catalog below.\n\n")

	b.WriteString("## Catalog\n")
	if data.Catalog != nil {
		for _, it := range data.Catalog.Items() {
			writeCatalogItem(&b, it)
		}
	}

	b.WriteString("\n## Context\n")
	for _, w := range seasonalWindows {
		if w.contains(data.Now) {
			b.WriteString(w.hint)
			b.WriteString(" ")
			break
		}
	}
	b.WriteString(timeOfDayHint(data.Now))
	b.WriteString("\n")

	if data.User != nil {
		fmt.Fprintf(&b, "The customer is %s", data.User.Name)
		if data.User.Tier != "" {
			fmt.Fprintf(&b, ", a %s member", data.User.Tier)
		}
		b.WriteString(".\n")
	} else {
		b.WriteString("The customer is an anonymous visitor.\n")
	}

	if len(data.Cart) > 0 {
		lines := make([]string, 0, len(data.Cart))
		for _, l := range data.Cart {
			lines = append(lines, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
		}
		fmt.Fprintf(&b, "Current cart: %s.\n", strings.Join(lines, ", "))
	} else {
		b.WriteString("The cart is empty.\n")
	}

	if len(data.Orders) > 0 {
		b.WriteString("Recent orders:\n")
		orders := data.Orders
		if len(orders) > 3 {
			orders = orders[:3]
		}
		for _, o := range orders {
			names := make([]string, 0, len(o.Lines))
			for _, l := range o.Lines {
				names = append(names, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
			}
			fmt.Fprintf(&b, "- %s (total %.2f): %s\n",
				o.PlacedAt.Format("2006-01-02"), o.Total, strings.Join(names, ", "))
		}
	} else {
		b.WriteString("The customer has no recent orders.\n")
	}

	b.WriteString("\n## Output contract\n")
	b.WriteString("When you recommend specific catalog products, end your reply with exactly one fenced block:\n")
	b.WriteString("```json\n{\"recommendedProductIds\": [\"<id>\", ...]}\n```\n")
	b.WriteString("Use only identifiers from the catalog above. Omit the block entirely when you are not recommending products.\n")

	return b.String()
}

func writeCatalogItem(b *strings.Builder, it domain.CatalogItem) {
	fmt.Fprintf(b, "- [%s] %s: %.2f per %s, %d in stock", it.ID, it.Name, it.Price, it.Unit, it.Stock)
	if it.Stock < lowStockThreshold {
		fmt.Fprintf(b, " (only %d left in stock — recommend ordering soon)", it.Stock)
	}
	if it.Origin != "" {
		fmt.Fprintf(b, ". Origin: %s", it.Origin)
	}
	if it.Description != "" {
		fmt.Fprintf(b, ". %s", it.Description)
	}
	if it.PrepNote != "" {
		fmt.Fprintf(b, " Preparation: %s", it.PrepNote)
	}
	if it.Nutrition != "" {
		fmt.Fprintf(b, " Nutrition: %s", it.Nutrition)
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(b, " Tags: %s.", strings.Join(it.Tags, ", "))
	}
	b.WriteString("\n")
}
