package dashboard

import (
	"github.com/mindlab-health/caregrid/pkg/session"
)

// Card is one rendered module tile.
type Card struct {
	Module      string `json:"module"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ComposeCards builds one card per module, preserving input order exactly.
// Pure: no view access, no session access, no reordering, no deduplication
// beyond what the server already guarantees.
func ComposeCards(modules []string, registry *Registry) []Card {
	cards := make([]Card, 0, len(modules))
	for _, name := range modules {
		d := registry.Describe(name)
		cards = append(cards, Card{
			Module:      name,
			Icon:        d.Icon,
			Title:       d.Title,
			Description: d.Description,
		})
	}
	return cards
}

// PreviewCards composes cards from the static fallback table. Presentation
// only: the result must never feed an access decision.
func PreviewCards(role session.Role, registry *Registry) []Card {
	return ComposeCards(FallbackModules(role), registry)
}
