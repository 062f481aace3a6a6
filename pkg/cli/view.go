package cli

import (
	"fmt"
	"io"

	"github.com/mindlab-health/caregrid/pkg/dashboard"
)

// textView renders a composed dashboard as plain text. It implements
// dashboard.View for the terminal.
type textView struct {
	w io.Writer
}

func newTextView(w io.Writer) *textView {
	return &textView{w: w}
}

func (v *textView) RenderHeader(header dashboard.Header) {
	title := header.Theme.Title
	if header.Preview {
		title += " (preview)"
	}
	fmt.Fprintf(v.w, "%s\n", title)
	if header.Theme.Tagline != "" {
		fmt.Fprintf(v.w, "%s\n", header.Theme.Tagline)
	}
	fmt.Fprintf(v.w, "role: %s\n\n", header.Role)
}

func (v *textView) RenderCards(cards []dashboard.Card) {
	for _, card := range cards {
		fmt.Fprintf(v.w, "  %s %-16s %s\n", card.Icon, card.Title, card.Description)
	}
}

func (v *textView) RenderEmpty(notice string) {
	fmt.Fprintf(v.w, "  %s\n", notice)
}
